package voice

import (
	"math"

	"github.com/superterminal/voicesynth/internal/effects"
	"github.com/superterminal/voicesynth/internal/envelope"
	"github.com/superterminal/voicesynth/internal/lfo"
	"github.com/superterminal/voicesynth/internal/osc"
	"github.com/superterminal/voicesynth/internal/physical"
)

// Frame carries the previous frame's raw oscillator outputs and phase wraps,
// indexed by voice number minus one. Ring modulation and hard sync read it,
// so the order voices are processed in does not matter.
type Frame struct {
	Osc     []float64
	Wrapped []bool
}

// NewFrame allocates a frame for n voices.
func NewFrame(n int) Frame {
	return Frame{Osc: make([]float64, n), Wrapped: make([]bool, n)}
}

// Voice is the audio-side runtime state of one voice.
type Voice struct {
	index  int
	params Params

	freq          float64
	startFreq     float64
	targetFreq    float64
	portaProgress float64

	phase   float64
	wrapped bool
	noise   osc.LFSR
	testOn  bool

	env          envelope.ADSR
	autoGate     float64
	autoGateOn   bool
	delay        *effects.VoiceDelay
	model        *physical.State
	lastOsc      float64
	lastOut      float64
	filterOffset float64
}

// New allocates a voice. index is 1-based.
func New(index, sampleRate int, maxDelaySeconds float64) *Voice {
	v := &Voice{
		index:         index,
		noise:         osc.NewLFSR(uint32(0xACE1 + index*7919)),
		delay:         effects.NewVoiceDelay(sampleRate, maxDelaySeconds),
		model:         physical.New(sampleRate),
		freq:          DefaultFrequency,
		startFreq:     DefaultFrequency,
		targetFreq:    DefaultFrequency,
		portaProgress: 1,
	}
	v.Apply(DefaultParams())
	return v
}

func (v *Voice) Index() int { return v.index }

// Apply installs a parameter snapshot. Envelope stage, phase and buffers persist.
func (v *Voice) Apply(p Params) {
	if p.RingMod == v.index {
		p.RingMod = 0
	}
	if p.Sync == v.index {
		p.Sync = 0
	}
	old := v.params
	v.params = p
	if p.AttackMs != old.AttackMs || p.DecayMs != old.DecayMs || p.Sustain != old.Sustain || p.ReleaseMs != old.ReleaseMs {
		v.env.Set(p.AttackMs, p.DecayMs, p.Sustain, p.ReleaseMs)
	}
	v.delay.Set(p.DelayTime, p.DelayFeedback, p.DelayMix)
	v.delay.SetEnabled(p.DelayEnabled)
}

// Params returns the active snapshot.
func (v *Voice) Params() Params { return v.params }

// DefaultFrequency is the pitch of a voice that has not been given a note.
const DefaultFrequency = 440.0

// SetTarget starts a glide to hz over the portamento time.
func (v *Voice) SetTarget(hz float64) {
	if !(hz > 0) || math.IsInf(hz, 0) {
		return
	}
	v.targetFreq = hz
	if v.freq <= 0 || v.params.Portamento <= 0 {
		v.freq = hz
		v.startFreq = hz
		v.portaProgress = 1
		return
	}
	v.startFreq = v.freq
	v.portaProgress = 0
}

// GateOn starts the attack. Physical voices also excite their model.
func (v *Voice) GateOn() {
	v.autoGateOn = false
	v.env.GateOn()
	if v.params.Waveform == osc.Physical {
		v.Trigger()
	}
}

// GateOff starts the release.
func (v *Voice) GateOff() {
	v.autoGateOn = false
	v.env.GateOff()
}

// GateFor opens the gate and schedules the release after seconds.
func (v *Voice) GateFor(seconds float64) {
	v.GateOn()
	if seconds < 0 {
		seconds = 0
	}
	v.autoGate = seconds
	v.autoGateOn = true
}

// Trigger excites the physical model at the current target pitch.
func (v *Voice) Trigger() {
	f := v.targetFreq
	if f <= 0 {
		f = v.freq
	}
	v.model.Trigger(v.params.Physical, f)
}

// Reset gates off, idles the envelope and clears delay and model state.
// Oscillator phase is preserved.
func (v *Voice) Reset() {
	v.env.Reset()
	v.autoGateOn = false
	v.autoGate = 0
	v.delay.Reset()
	v.model.Reset()
	v.lastOut = 0
}

// Step renders one stereo frame.
func (v *Voice) Step(dt float64, lfos *lfo.Bank, prev *Frame) (float32, float32) {
	p := &v.params

	// 1. portamento
	if v.portaProgress < 1 {
		if p.Portamento <= 0 {
			v.portaProgress = 1
		} else {
			v.portaProgress += dt / p.Portamento
			if v.portaProgress > 1 {
				v.portaProgress = 1
			}
		}
		v.freq = v.startFreq + (v.targetFreq-v.startFreq)*v.portaProgress
	}

	// 2. auto gate
	if v.autoGateOn {
		v.autoGate -= dt
		if v.autoGate <= 0 {
			v.autoGateOn = false
			v.env.GateOff()
		}
	}

	// 3. envelope
	level := v.env.Step(dt)

	// 4. pitch
	cents := p.Detune
	if p.LFOPitch.LFO != 0 {
		cents += lfos.Value(p.LFOPitch.LFO) * p.LFOPitch.Depth
	}
	hz := v.freq
	if cents != 0 {
		hz *= math.Exp2(cents / 1200)
	}
	v.filterOffset = 0
	if p.LFOFilter.LFO != 0 {
		v.filterOffset = lfos.Value(p.LFOFilter.LFO) * p.LFOFilter.Depth
	}

	// 5. phase, sync and test bit
	var sample float64
	if p.TestBit {
		if !v.testOn {
			v.noise.Reset(uint32(0xACE1 + v.index*7919))
			v.testOn = true
		}
		v.phase = 0
		v.wrapped = false
	} else {
		v.testOn = false
		v.phase, v.wrapped = osc.WrapPhase(v.phase, hz*dt)
		if p.Sync > 0 && prev != nil && p.Sync <= len(prev.Wrapped) && prev.Wrapped[p.Sync-1] {
			v.phase = 0
		}

		// 6. oscillator or physical model
		pw := p.PulseWidth
		if p.LFOPulse.LFO != 0 {
			pw += lfos.Value(p.LFOPulse.LFO) * p.LFOPulse.Depth
		}
		if p.Waveform == osc.Physical {
			sample = v.model.Step(p.Physical)
		} else {
			sample = osc.Sample(p.Waveform, v.phase, pw, &v.noise)
		}
		if p.Combine && p.Waveform2 != osc.Silence {
			sample = osc.Combine(sample, v.secondary(p.Waveform2, pw))
		}
	}
	v.lastOsc = sample

	// 7. ring modulation
	if p.RingMod > 0 && prev != nil && p.RingMod <= len(prev.Osc) {
		sample *= prev.Osc[p.RingMod-1]
	}

	// 8. amplitude
	gain := level * p.Volume
	if p.LFOVolume.LFO != 0 {
		mod := 1 + lfos.Value(p.LFOVolume.LFO)*p.LFOVolume.Depth
		if mod < 0 {
			mod = 0
		}
		gain *= mod
	}
	mono := sample * gain
	if math.IsNaN(mono) || math.IsInf(mono, 0) {
		mono = 0
	}
	v.lastOut = mono

	// 9. equal-power pan
	angle := (p.Pan + 1) * math.Pi / 4
	l := float32(mono * math.Cos(angle))
	r := float32(mono * math.Sin(angle))

	// 10. delay
	l, r = v.delay.Process(l, r)
	return sanitize(l), sanitize(r)
}

// secondary produces the combined waveform's sample. A noise secondary steps
// the voice's shared LFSR; a physical secondary counts as silence.
func (v *Voice) secondary(w osc.Waveform, pw float64) float64 {
	if w == osc.Physical {
		return 0
	}
	return osc.Sample(w, v.phase, pw, &v.noise)
}

// Publish records this frame's raw oscillator output into next.
func (v *Voice) Publish(next *Frame) {
	i := v.index - 1
	if i < 0 || i >= len(next.Osc) {
		return
	}
	next.Osc[i] = v.lastOsc
	next.Wrapped[i] = v.wrapped
}

func sanitize(s float32) float32 {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if s > -1e-30 && s < 1e-30 {
		return 0
	}
	return s
}

// State is a read-only view of a voice for inspection and tests.
type State struct {
	Index     int
	Active    bool
	Gate      bool
	Envelope  envelope.State
	Level     float64
	Frequency float64
	Target    float64
	Phase     float64
}

// Snapshot reports the voice's runtime state.
func (v *Voice) Snapshot() State {
	return State{
		Index:     v.index,
		Active:    v.env.Active(),
		Gate:      v.env.Gated(),
		Envelope:  v.env.State(),
		Level:     v.env.Level(),
		Frequency: v.freq,
		Target:    v.targetFreq,
		Phase:     v.phase,
	}
}

// Active reports whether the envelope is sounding.
func (v *Voice) Active() bool { return v.env.Active() }

// FilterRouted reports whether the voice feeds the global filter.
func (v *Voice) FilterRouted() bool { return v.params.FilterRoute }

// FilterOffset is this frame's LFO contribution to the filter cutoff in Hz.
func (v *Voice) FilterOffset() float64 { return v.filterOffset }

// LastOutput is the most recent pre-pan, pre-delay output sample.
func (v *Voice) LastOutput() float64 { return v.lastOut }

// TailSeconds estimates how long the voice keeps sounding with no new input.
func (v *Voice) TailSeconds() float64 {
	tail := v.env.ReleaseSeconds()
	if d := v.delay.DecaySeconds(); d > tail {
		tail = d
	}
	if v.autoGateOn && v.autoGate > 0 {
		tail += v.autoGate
	}
	return tail
}
