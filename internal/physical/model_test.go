package physical

import (
	"math"
	"testing"
)

const sr = 48000

func energy(s *State, p Params, n int) (sum, peak float64) {
	for i := 0; i < n; i++ {
		v := s.Step(p)
		if math.IsNaN(v) || v > 1 || v < -1 {
			panic("sample out of range")
		}
		sum += v * v
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return sum, peak
}

func TestModelsSilentUntilTriggered(t *testing.T) {
	s := New(sr)
	for _, m := range []Model{Plucked, Bar, Tube, Drum, Glass} {
		p := DefaultParams()
		p.Model = m
		if sum, _ := energy(s, p, 1000); sum != 0 {
			t.Fatalf("%v produced output before trigger", m)
		}
	}
}

func TestModelsProduceBoundedSound(t *testing.T) {
	for _, m := range []Model{Plucked, Bar, Tube, Drum, Glass} {
		t.Run(m.String(), func(t *testing.T) {
			s := New(sr)
			p := DefaultParams()
			p.Model = m
			p.Excitation = 1
			s.Trigger(p, 220)
			sum, peak := energy(s, p, sr/2)
			if sum < 1e-3 {
				t.Fatalf("%v triggered but silent (energy %g)", m, sum)
			}
			if peak > 1 {
				t.Fatalf("%v peak %f exceeds 1", m, peak)
			}
		})
	}
}

func TestPluckedPeriodMatchesFrequency(t *testing.T) {
	s := New(sr)
	p := DefaultParams()
	p.Damping = 0
	p.Brightness = 1
	p.Tension = 0.5
	s.Trigger(p, 480)
	period := sr / 480
	out := make([]float64, period*4)
	for i := range out {
		out[i] = s.Step(p)
	}
	for i := 0; i < period; i++ {
		if math.Abs(out[i]-out[i+period]) > 0.01 {
			t.Fatalf("bright undamped string should repeat every %d samples; diff at %d = %f", period, i, out[i]-out[i+period])
		}
	}
}

func TestDampingShortensDecay(t *testing.T) {
	tail := func(damping float64, m Model) float64 {
		s := New(sr)
		p := DefaultParams()
		p.Model = m
		p.Damping = damping
		s.Trigger(p, 220)
		energy(s, p, sr/2)
		sum, _ := energy(s, p, sr/4)
		return sum
	}
	for _, m := range []Model{Plucked, Bar, Drum} {
		if light, heavy := tail(0.1, m), tail(0.9, m); heavy >= light {
			t.Fatalf("%v: heavy damping tail %g should be below light damping tail %g", m, heavy, light)
		}
	}
}

func TestResetSilences(t *testing.T) {
	s := New(sr)
	p := DefaultParams()
	s.Trigger(p, 440)
	s.Step(p)
	s.Reset()
	if s.Triggered() {
		t.Fatalf("reset should clear the trigger")
	}
	if v := s.Step(p); v != 0 {
		t.Fatalf("reset model produced %f", v)
	}
}

func TestTriggerOutOfRangeFrequency(t *testing.T) {
	s := New(sr)
	p := DefaultParams()
	for _, f := range []float64{0, -10, 5, 1e6, math.NaN()} {
		s.Trigger(p, f)
		energy(s, p, 100)
	}
}

func TestParseModel(t *testing.T) {
	for name, want := range map[string]Model{"STRING": Plucked, "plucked": Plucked, "Bar": Bar, "tube": Tube, "drum": Drum, "GLASS": Glass} {
		got, ok := ParseModel(name)
		if !ok || got != want {
			t.Fatalf("ParseModel(%q) = %v, %v", name, got, ok)
		}
	}
	if _, ok := ParseModel("kazoo"); ok {
		t.Fatalf("unknown model should fail")
	}
}
