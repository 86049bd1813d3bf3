// Package envelope implements the linear ADSR amplitude envelope.
package envelope

// State is the envelope stage.
type State int

const (
	Idle State = iota
	Attack
	Decay
	Sustain
	Release
)

func (s State) String() string {
	switch s {
	case Attack:
		return "attack"
	case Decay:
		return "decay"
	case Sustain:
		return "sustain"
	case Release:
		return "release"
	default:
		return "idle"
	}
}

// ADSR is a linear attack/decay/sustain/release state machine with output in [0,1].
type ADSR struct {
	attackSec  float64
	decaySec   float64
	sustain    float64
	releaseSec float64

	state       State
	level       float64
	elapsed     float64 // seconds spent in the current state
	releaseFrom float64 // level at the start of the release ramp
}

// New returns an idle envelope with the given times in milliseconds.
func New(attackMs, decayMs, sustain, releaseMs float64) *ADSR {
	e := &ADSR{}
	e.Set(attackMs, decayMs, sustain, releaseMs)
	return e
}

// Set updates the times and sustain level. Negative times clamp to zero.
// A running stage keeps its current level. Changing the release time during
// a release restarts the ramp from the current level; any other call leaves
// the ramp untouched.
func (e *ADSR) Set(attackMs, decayMs, sustain, releaseMs float64) {
	e.attackSec = msToSec(attackMs)
	e.decaySec = msToSec(decayMs)
	e.sustain = clamp01(sustain)
	release := msToSec(releaseMs)
	if e.state == Release && release != e.releaseSec {
		e.releaseFrom = e.level
		e.elapsed = 0
	}
	e.releaseSec = release
}

// GateOn starts the attack from the current level.
func (e *ADSR) GateOn() {
	e.enter(Attack)
}

// GateOff moves any gated stage into release from the current level.
func (e *ADSR) GateOff() {
	switch e.state {
	case Attack, Decay, Sustain:
		e.enter(Release)
	}
}

// Reset silences the envelope immediately.
func (e *ADSR) Reset() {
	e.state = Idle
	e.level = 0
	e.elapsed = 0
	e.releaseFrom = 0
}

// Step advances the envelope by dt seconds and returns the new level.
func (e *ADSR) Step(dt float64) float64 {
	if dt < 0 {
		dt = 0
	}
	e.elapsed += dt
	// Zero-length stages fall through to the next one within the same step.
	for range 4 {
		switch e.state {
		case Attack:
			if e.attackSec <= 0 {
				e.level = 1
				e.enter(Decay)
				continue
			}
			e.level += dt / e.attackSec
			if e.level >= 1 {
				e.level = 1
				e.enter(Decay)
			}
		case Decay:
			if e.decaySec <= 0 || e.level <= e.sustain {
				e.level = min(e.level, e.sustain)
				e.enter(Sustain)
				continue
			}
			e.level -= dt * (1 - e.sustain) / e.decaySec
			if e.level <= e.sustain {
				e.level = e.sustain
				e.enter(Sustain)
			}
		case Sustain:
			e.level = e.sustain
		case Release:
			// The ramp is a function of time in state, so it always ends
			// releaseSec after it started.
			if e.releaseSec <= 0 || e.releaseFrom <= 0 || e.elapsed >= e.releaseSec {
				e.Reset()
				continue
			}
			e.level = e.releaseFrom * (1 - e.elapsed/e.releaseSec)
		}
		break
	}
	return e.level
}

func (e *ADSR) enter(s State) {
	e.state = s
	e.elapsed = 0
	if s == Release {
		e.releaseFrom = e.level
	}
}

func (e *ADSR) Level() float64       { return e.level }
func (e *ADSR) State() State         { return e.state }
func (e *ADSR) TimeInState() float64 { return e.elapsed }
func (e *ADSR) Gated() bool          { return e.state == Attack || e.state == Decay || e.state == Sustain }
func (e *ADSR) Active() bool         { return e.state != Idle }

// ReleaseSeconds returns the configured release time.
func (e *ADSR) ReleaseSeconds() float64 { return e.releaseSec }

// Params returns the configured times in milliseconds and the sustain level.
func (e *ADSR) Params() (attackMs, decayMs, sustain, releaseMs float64) {
	return e.attackSec * 1000, e.decaySec * 1000, e.sustain, e.releaseSec * 1000
}

func msToSec(ms float64) float64 {
	if !(ms > 0) {
		return 0
	}
	return ms / 1000
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
