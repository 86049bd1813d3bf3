package voice

import (
	"math"
	"testing"

	"github.com/superterminal/voicesynth/internal/envelope"
	"github.com/superterminal/voicesynth/internal/lfo"
	"github.com/superterminal/voicesynth/internal/osc"
)

const sr = 48000

type rig struct {
	voices []*Voice
	lfos   *lfo.Bank
	prev   Frame
	next   Frame
}

func newRig(n int) *rig {
	r := &rig{lfos: lfo.NewBank(), prev: NewFrame(n), next: NewFrame(n)}
	for i := 1; i <= n; i++ {
		r.voices = append(r.voices, New(i, sr, 2))
	}
	return r
}

// run renders frames and returns the left channel of the chosen voice.
func (r *rig) run(frames, listen int) []float64 {
	out := make([]float64, frames)
	dt := 1.0 / sr
	for i := 0; i < frames; i++ {
		r.lfos.Step(dt)
		for _, v := range r.voices {
			l, _ := v.Step(dt, r.lfos, &r.prev)
			if v.Index() == listen {
				out[i] = float64(l)
			}
			v.Publish(&r.next)
		}
		r.prev, r.next = r.next, r.prev
	}
	return out
}

func peak(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		m = max(m, math.Abs(x))
	}
	return m
}

func TestVoiceSineEnvelopeAndPan(t *testing.T) {
	r := newRig(1)
	v := r.voices[0]
	p := DefaultParams()
	p.Waveform = osc.Sine
	p.AttackMs, p.DecayMs, p.Sustain, p.ReleaseMs = 5, 20, 0.8, 50
	v.Apply(p)
	v.SetTarget(440)
	v.GateOn()
	out := r.run(sr/10, 1)
	if math.Abs(out[0]) > 0.01 {
		t.Fatalf("first sample should be near 0, got %f", out[0])
	}
	want := 0.8 * math.Cos(math.Pi/4)
	if got := peak(out[sr/20:]); math.Abs(got-want) > 0.01 {
		t.Fatalf("sustain peak = %f, want %f", got, want)
	}
}

func TestVoiceSilentWhenIdle(t *testing.T) {
	r := newRig(1)
	r.voices[0].SetTarget(440)
	if p := peak(r.run(1000, 1)); p != 0 {
		t.Fatalf("ungated voice produced %f", p)
	}
}

func TestVoicePortamentoReachesTarget(t *testing.T) {
	r := newRig(1)
	v := r.voices[0]
	v.SetTarget(200)
	p := v.Params()
	p.Portamento = 0.05
	v.Apply(p)
	v.SetTarget(800)
	r.run(sr/40, 1)
	mid := v.Snapshot().Frequency
	if mid <= 200 || mid >= 800 {
		t.Fatalf("glide midpoint %f not between endpoints", mid)
	}
	r.run(sr/20, 1)
	if got := v.Snapshot().Frequency; math.Abs(got-800)/800 > 0.001 {
		t.Fatalf("frequency after glide = %f, want 800", got)
	}
}

func TestVoiceGateForReleases(t *testing.T) {
	r := newRig(1)
	v := r.voices[0]
	p := DefaultParams()
	p.AttackMs, p.DecayMs, p.Sustain, p.ReleaseMs = 1, 1, 1, 10
	v.Apply(p)
	v.GateFor(0.02)
	r.run(sr/100, 1)
	if v.Snapshot().Envelope == envelope.Release {
		t.Fatalf("released too early")
	}
	r.run(sr/25, 1)
	if s := v.Snapshot(); s.Envelope != envelope.Idle || s.Level != 0 {
		t.Fatalf("auto gate should finish idle, got %v %f", s.Envelope, s.Level)
	}
}

func TestVoiceTestBitHoldsPhase(t *testing.T) {
	r := newRig(1)
	v := r.voices[0]
	p := DefaultParams()
	p.Sustain = 1
	p.AttackMs = 0
	p.TestBit = true
	v.Apply(p)
	v.GateOn()
	if pk := peak(r.run(500, 1)); pk != 0 {
		t.Fatalf("test bit should silence the oscillator, got %f", pk)
	}
	if ph := v.Snapshot().Phase; ph != 0 {
		t.Fatalf("test bit should hold phase at 0, got %f", ph)
	}
	p.TestBit = false
	v.Apply(p)
	if pk := peak(r.run(500, 1)); pk == 0 {
		t.Fatalf("clearing the test bit should restore sound")
	}
}

func TestVoiceHardSync(t *testing.T) {
	r := newRig(2)
	master, slave := r.voices[0], r.voices[1]
	master.SetTarget(100)
	slave.SetTarget(330)
	p := DefaultParams()
	p.Sync = 1
	slave.Apply(p)
	// Run until the master wraps, then check the slave restarted.
	for i := 0; i < sr; i++ {
		r.run(1, 2)
		if r.prev.Wrapped[0] {
			r.run(1, 2)
			if ph := slave.Snapshot().Phase; ph != 0 {
				t.Fatalf("slave phase after master wrap = %f, want 0", ph)
			}
			return
		}
	}
	t.Fatalf("master never wrapped")
}

func TestVoiceSelfRoutingIgnored(t *testing.T) {
	v := New(3, sr, 2)
	p := DefaultParams()
	p.RingMod = 3
	p.Sync = 3
	v.Apply(p)
	if got := v.Params(); got.RingMod != 0 || got.Sync != 0 {
		t.Fatalf("self routing kept: ring=%d sync=%d", got.RingMod, got.Sync)
	}
}

func TestVoiceResetPreservesPhase(t *testing.T) {
	r := newRig(1)
	v := r.voices[0]
	v.GateOn()
	r.run(123, 1)
	before := v.Snapshot().Phase
	v.Reset()
	s := v.Snapshot()
	if s.Phase != before {
		t.Fatalf("reset moved phase %f -> %f", before, s.Phase)
	}
	if s.Active || s.Level != 0 {
		t.Fatalf("reset should idle the voice")
	}
}

func TestVoiceCombineIsBounded(t *testing.T) {
	r := newRig(1)
	v := r.voices[0]
	p := DefaultParams()
	p.Waveform = osc.Square
	p.Waveform2 = osc.Noise
	p.Combine = true
	p.AttackMs, p.Sustain = 0, 1
	v.Apply(p)
	v.GateOn()
	for _, s := range r.run(4800, 1) {
		if math.Abs(s) > 1 {
			t.Fatalf("combined sample %f out of range", s)
		}
	}
}

func TestVoicePhysicalTriggersOnGate(t *testing.T) {
	r := newRig(1)
	v := r.voices[0]
	p := DefaultParams()
	p.Waveform = osc.Physical
	p.AttackMs, p.Sustain = 0, 1
	v.Apply(p)
	v.SetTarget(220)
	if pk := peak(r.run(480, 1)); pk != 0 {
		t.Fatalf("untriggered model produced %f", pk)
	}
	v.GateOn()
	if pk := peak(r.run(4800, 1)); pk == 0 {
		t.Fatalf("gated physical voice stayed silent")
	}
}

func TestVoiceTailSeconds(t *testing.T) {
	v := New(1, sr, 2)
	p := DefaultParams()
	p.ReleaseMs = 300
	v.Apply(p)
	if got := v.TailSeconds(); math.Abs(got-0.3) > 1e-9 {
		t.Fatalf("tail = %f, want 0.3", got)
	}
	p.DelayEnabled = true
	p.DelayTime = 0.25
	p.DelayFeedback = 0.5
	p.DelayMix = 0.5
	v.Apply(p)
	if got := v.TailSeconds(); got < 2.5 {
		t.Fatalf("delay tail = %f, want at least 10 echoes", got)
	}
}
