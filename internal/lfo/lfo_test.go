package lfo

import (
	"math"
	"testing"
)

func TestLFOTriangleBasicShape(t *testing.T) {
	l := &LFO{}
	l.Set(Params{Waveform: WaveTriangle, RateHz: 1, Enabled: true})

	dt := 1.0 / 100 // 100 samples per cycle
	var rng uint32 = 1
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = l.Step(dt, &rng)
	}

	if math.Abs(samples[0]-(-1.0)) > 0.05 {
		t.Errorf("triangle at phase 0: got %f, want -1.0", samples[0])
	}
	if math.Abs(samples[25]) > 0.05 {
		t.Errorf("triangle at phase 0.25: got %f, want ~0", samples[25])
	}
	if math.Abs(samples[50]-1.0) > 0.05 {
		t.Errorf("triangle at phase 0.5: got %f, want 1.0", samples[50])
	}
}

func TestLFOShapes(t *testing.T) {
	cases := []struct {
		name  string
		wave  Waveform
		at    int
		want  float64
		delta float64
	}{
		{"sine quarter", WaveSine, 25, 1, 0.01},
		{"square first half", WaveSquare, 10, 1, 0},
		{"square second half", WaveSquare, 60, -1, 0},
		{"saw start", WaveSaw, 0, -1, 0.01},
		{"saw late", WaveSaw, 75, 0.5, 0.01},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := &LFO{}
			l.Set(Params{Waveform: tc.wave, RateHz: 1, Enabled: true})
			var rng uint32 = 1
			var v float64
			for i := 0; i <= tc.at; i++ {
				v = l.Step(0.01, &rng)
			}
			if math.Abs(v-tc.want) > tc.delta+1e-9 {
				t.Fatalf("value at step %d = %f, want %f", tc.at, v, tc.want)
			}
		})
	}
}

func TestLFOSampleHoldChangesOncePerCycle(t *testing.T) {
	l := &LFO{}
	l.Set(Params{Waveform: WaveSampleHold, RateHz: 10, Enabled: true})
	var rng uint32 = 7
	changes := 0
	prev := l.Step(1.0/1000, &rng)
	for i := 1; i < 1000; i++ {
		v := l.Step(1.0/1000, &rng)
		if v < -1 || v > 1 {
			t.Fatalf("held value %f out of range", v)
		}
		if v != prev {
			changes++
		}
		prev = v
	}
	if changes < 8 || changes > 10 {
		t.Fatalf("10 Hz S&H over 1 s changed %d times, want ~10", changes)
	}
}

func TestLFODisabledIsZero(t *testing.T) {
	l := &LFO{}
	l.Set(Params{Waveform: WaveSquare, RateHz: 3, Enabled: false})
	var rng uint32 = 1
	for i := 0; i < 100; i++ {
		if v := l.Step(0.01, &rng); v != 0 {
			t.Fatalf("disabled LFO produced %f", v)
		}
	}
}

func TestBankPhasePreservedAcrossApply(t *testing.T) {
	b := NewBank()
	for i := 0; i < 30; i++ {
		b.Step(0.001)
	}
	before := b.Phase(1)
	p := DefaultParams()
	p[0].Waveform = WaveSaw
	b.Apply(p)
	if b.Phase(1) != before {
		t.Fatalf("Apply reset phase: %f -> %f", before, b.Phase(1))
	}
	b.ResetPhase(1)
	if b.Phase(1) != 0 {
		t.Fatalf("ResetPhase left phase %f", b.Phase(1))
	}
}

func TestBankIndexing(t *testing.T) {
	b := NewBank()
	b.Step(0.05)
	b.Step(0.05)
	if b.Value(0) != 0 || b.Value(5) != 0 {
		t.Fatalf("out-of-range LFO indices must read 0")
	}
	if b.Value(1) == 0 {
		t.Fatalf("default LFO 1 should be running")
	}
	b.ResetPhase(9)
}

func TestBankDeterministic(t *testing.T) {
	run := func() []float64 {
		b := NewBank()
		var p [Count]Params
		for i := range p {
			p[i] = Params{Waveform: WaveSampleHold, RateHz: float64(5 + i), Enabled: true}
		}
		b.Apply(p)
		var out []float64
		for i := 0; i < 2000; i++ {
			b.Step(1.0 / 1000)
			out = append(out, b.Value(1)+b.Value(4))
		}
		return out
	}
	a, c := run(), run()
	for i := range a {
		if a[i] != c[i] {
			t.Fatalf("bank output diverged at %d", i)
		}
	}
}
