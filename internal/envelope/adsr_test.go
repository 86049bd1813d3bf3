package envelope

import (
	"math"
	"testing"
)

const dt = 1.0 / 48000

func TestADSRStagesAndTiming(t *testing.T) {
	e := New(5, 20, 0.8, 50)
	if e.State() != Idle || e.Level() != 0 {
		t.Fatalf("new envelope should be idle at 0")
	}
	e.GateOn()
	steps := 0
	for e.State() == Attack {
		e.Step(dt)
		steps++
		if steps > 48000 {
			t.Fatalf("attack never finished")
		}
	}
	if got := float64(steps) * dt; math.Abs(got-0.005) > 0.0002 {
		t.Fatalf("attack took %vs, want 5ms", got)
	}
	for e.State() == Decay {
		e.Step(dt)
	}
	if e.State() != Sustain || math.Abs(e.Level()-0.8) > 1e-9 {
		t.Fatalf("expected sustain at 0.8, got %v at %v", e.State(), e.Level())
	}
	for i := 0; i < 1000; i++ {
		e.Step(dt)
	}
	if e.Level() != 0.8 {
		t.Fatalf("sustain drifted to %v", e.Level())
	}
	e.GateOff()
	steps = 0
	for e.State() == Release {
		e.Step(dt)
		steps++
	}
	if got := float64(steps) * dt; math.Abs(got-0.05) > 0.0002 {
		t.Fatalf("release took %vs, want 50ms", got)
	}
	if e.State() != Idle || e.Level() != 0 {
		t.Fatalf("release should end idle at 0, got %v %v", e.State(), e.Level())
	}
}

func TestADSRMonotonicity(t *testing.T) {
	e := New(3, 7, 0.4, 11)
	e.GateOn()
	prev := e.Level()
	for i := 0; i < 48000/10; i++ {
		state := e.State()
		level := e.Step(dt)
		switch state {
		case Attack:
			if level < prev && e.State() == Attack {
				t.Fatalf("attack decreased %v -> %v", prev, level)
			}
		case Decay:
			if level > prev {
				t.Fatalf("decay increased %v -> %v", prev, level)
			}
		}
		if level < 0 || level > 1 {
			t.Fatalf("level %v out of range", level)
		}
		prev = level
	}
	e.GateOff()
	prev = e.Level()
	for e.State() == Release {
		level := e.Step(dt)
		if level > prev {
			t.Fatalf("release increased %v -> %v", prev, level)
		}
		prev = level
	}
}

func TestADSRZeroTimesJump(t *testing.T) {
	e := New(0, 0, 0.5, 0)
	e.GateOn()
	if got := e.Step(dt); got != 0.5 {
		t.Fatalf("zero attack/decay should land on sustain, got %v", got)
	}
	if e.State() != Sustain {
		t.Fatalf("state = %v, want sustain", e.State())
	}
	e.GateOff()
	if got := e.Step(dt); got != 0 || e.State() != Idle {
		t.Fatalf("zero release should go idle, got %v %v", got, e.State())
	}
}

func TestADSRGateOffDuringAttack(t *testing.T) {
	e := New(100, 10, 1, 20)
	e.GateOn()
	for i := 0; i < 48*10; i++ {
		e.Step(dt)
	}
	start := e.Level()
	if start <= 0 || start >= 1 {
		t.Fatalf("expected partial attack level, got %v", start)
	}
	e.GateOff()
	if e.State() != Release {
		t.Fatalf("gate off in attack should release, got %v", e.State())
	}
	if e.Level() != start {
		t.Fatalf("release must start from the current level")
	}
	steps := 0
	for e.State() == Release {
		e.Step(dt)
		steps++
	}
	if got := float64(steps) * dt; math.Abs(got-0.02) > 0.0002 {
		t.Fatalf("partial release took %vs, want 20ms", got)
	}
}

func TestADSRNegativeInputsClamp(t *testing.T) {
	e := New(-5, -1, 3, -9)
	a, d, s, r := e.Params()
	if a != 0 || d != 0 || s != 1 || r != 0 {
		t.Fatalf("params = %v %v %v %v", a, d, s, r)
	}
	e = New(1, 1, -0.5, 1)
	if _, _, s, _ := e.Params(); s != 0 {
		t.Fatalf("sustain should clamp to 0, got %v", s)
	}
}

func TestGateOffWhenIdleIsNoop(t *testing.T) {
	e := New(1, 1, 1, 1)
	e.GateOff()
	if e.State() != Idle {
		t.Fatalf("idle envelope should ignore gate off")
	}
}

func TestADSRSetDuringRelease(t *testing.T) {
	tests := []struct {
		name      string
		releaseMs float64
	}{
		{"unchanged params", 50},
		{"longer release", 100},
		{"shorter release", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(5, 20, 0.8, 50)
			e.GateOn()
			for i := 0; i < 4800; i++ {
				e.Step(dt)
			}
			e.GateOff()
			want := tt.releaseMs / 1000
			steps := 0
			for e.State() == Release {
				// Parameters are pushed once per 512-frame block.
				if steps%512 == 0 {
					e.Set(5, 20, 0.8, tt.releaseMs)
				}
				e.Step(dt)
				steps++
				if got := float64(steps) * dt; math.Abs(got-want/2) < dt/2 {
					if math.Abs(e.Level()-0.4) > 0.001 {
						t.Fatalf("level halfway through release = %v, want 0.4", e.Level())
					}
				}
				if steps > 48000 {
					t.Fatalf("release never finished, level %v", e.Level())
				}
			}
			if got := float64(steps) * dt; math.Abs(got-want) > 0.0002 {
				t.Fatalf("release took %vs, want %vs", got, want)
			}
			if e.Level() != 0 {
				t.Fatalf("release should end at 0, got %v", e.Level())
			}
		})
	}
}

func TestADSRSetMidReleaseRestartsFromLevel(t *testing.T) {
	e := New(0, 0, 1, 40)
	e.GateOn()
	e.Step(dt)
	e.GateOff()
	for i := 0; i < 960; i++ {
		e.Step(dt)
	}
	mid := e.Level()
	if math.Abs(mid-0.5) > 0.001 {
		t.Fatalf("level after 20ms of a 40ms release = %v, want 0.5", mid)
	}
	e.Set(0, 0, 1, 10)
	if e.Level() != mid {
		t.Fatalf("Set moved the level %v -> %v", mid, e.Level())
	}
	steps := 0
	for e.State() == Release {
		e.Step(dt)
		steps++
	}
	if got := float64(steps) * dt; math.Abs(got-0.01) > 0.0002 {
		t.Fatalf("rest of release took %vs, want 10ms", got)
	}
}
