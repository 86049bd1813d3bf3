package lfo

import (
	"math"
	"strings"
)

// Waveform selects the LFO shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSquare
	WaveSaw
	WaveSampleHold
)

// ParseWaveform resolves a case-insensitive LFO shape name.
func ParseWaveform(name string) (Waveform, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sine", "sin":
		return WaveSine, true
	case "triangle", "tri":
		return WaveTriangle, true
	case "square", "sqr":
		return WaveSquare, true
	case "saw", "sawtooth":
		return WaveSaw, true
	case "samplehold", "sample_hold", "s&h", "sh", "random":
		return WaveSampleHold, true
	}
	return WaveSine, false
}

func (w Waveform) String() string {
	switch w {
	case WaveTriangle:
		return "triangle"
	case WaveSquare:
		return "square"
	case WaveSaw:
		return "saw"
	case WaveSampleHold:
		return "samplehold"
	default:
		return "sine"
	}
}

// Params is the control-side configuration of one LFO.
type Params struct {
	Waveform Waveform
	RateHz   float64
	Enabled  bool
}

// LFO is a low-frequency oscillator producing values in [-1,+1].
type LFO struct {
	params Params
	phase  float64 // current phase [0, 1)
	held   float64 // sample-and-hold value
	value  float64 // last output
}

// Set configures the LFO. Phase is preserved.
func (l *LFO) Set(p Params) {
	if p.Waveform < WaveSine || p.Waveform > WaveSampleHold {
		p.Waveform = WaveSine
	}
	if !(p.RateHz > 0) {
		p.RateHz = 0
	}
	l.params = p
}

// Params returns the current configuration.
func (l *LFO) Params() Params { return l.params }

// Step returns the value at the current phase, then advances by rate*dt.
// rng is the bank's shared sample-and-hold generator.
func (l *LFO) Step(dt float64, rng *uint32) float64 {
	if !l.params.Enabled {
		l.value = 0
		return 0
	}
	var v float64
	switch l.params.Waveform {
	case WaveTriangle:
		if l.phase < 0.5 {
			v = 4*l.phase - 1
		} else {
			v = 3 - 4*l.phase
		}
	case WaveSquare:
		if l.phase < 0.5 {
			v = 1
		} else {
			v = -1
		}
	case WaveSaw:
		v = 2*l.phase - 1
	case WaveSampleHold:
		v = l.held
	default:
		v = math.Sin(2 * math.Pi * l.phase)
	}

	l.phase += l.params.RateHz * dt
	if l.phase >= 1 {
		l.phase -= math.Floor(l.phase)
		if l.params.Waveform == WaveSampleHold {
			l.held = nextRandom(rng)
		}
	}
	l.value = v
	return v
}

// Value returns the last output without advancing.
func (l *LFO) Value() float64 { return l.value }

// Phase returns the current phase in [0,1).
func (l *LFO) Phase() float64 { return l.phase }

// Reset zeros the phase and draws a fresh held value.
func (l *LFO) Reset(rng *uint32) {
	l.phase = 0
	l.value = 0
	l.held = nextRandom(rng)
}

// nextRandom steps a xorshift32 state and maps it to [-1,1].
func nextRandom(state *uint32) float64 {
	if state == nil {
		return 0
	}
	x := *state
	if x == 0 {
		x = 0x9E3779B9
	}
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	*state = x
	return float64(x)/float64(math.MaxUint32)*2 - 1
}
