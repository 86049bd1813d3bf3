package effects

import (
	"math"
	"testing"
)

func TestVoiceDelayEchoesWithFeedback(t *testing.T) {
	d := NewVoiceDelay(48000, 2)
	d.Set(0.1, 0.5, 1)
	d.SetEnabled(true)
	out := make([]float32, 15000)
	for i := range out {
		in := float32(0)
		if i == 0 {
			in = 1
		}
		out[i], _ = d.Process(in, in)
	}
	if out[0] != 0 {
		t.Fatalf("full wet mix should hide the dry impulse, got %f", out[0])
	}
	if math.Abs(float64(out[4800])-1) > 1e-6 {
		t.Fatalf("first echo = %f, want 1", out[4800])
	}
	if math.Abs(float64(out[9600])-0.5) > 1e-6 {
		t.Fatalf("second echo = %f, want 0.5", out[9600])
	}
	if math.Abs(float64(out[14400])-0.25) > 1e-6 {
		t.Fatalf("third echo = %f, want 0.25", out[14400])
	}
}

func TestVoiceDelayClampsParameters(t *testing.T) {
	d := NewVoiceDelay(48000, 2)
	d.Set(5, 3, 7)
	if d.Seconds() != 2 || d.Feedback() != MaxFeedback || d.Mix() != 1 {
		t.Fatalf("clamped params = %v %v %v", d.Seconds(), d.Feedback(), d.Mix())
	}
	d.Set(-1, -1, -1)
	if d.Seconds() != 0 || d.Feedback() != 0 || d.Mix() != 0 {
		t.Fatalf("negative params = %v %v %v", d.Seconds(), d.Feedback(), d.Mix())
	}
}

func TestVoiceDelayFractionalRead(t *testing.T) {
	d := NewVoiceDelay(1000, 1)
	d.Set(0.0015, 0, 1)
	d.SetEnabled(true)
	d.Process(1, 1)
	a, _ := d.Process(0, 0)
	b, _ := d.Process(0, 0)
	if math.Abs(float64(a)-0.5) > 1e-6 || math.Abs(float64(b)-0.5) > 1e-6 {
		t.Fatalf("1.5-sample delay should split the impulse, got %f %f", a, b)
	}
}

func TestVoiceDelayDisabledPassesThrough(t *testing.T) {
	d := NewVoiceDelay(48000, 2)
	l, r := d.Process(0.3, -0.4)
	if l != 0.3 || r != -0.4 {
		t.Fatalf("disabled delay altered signal: %f %f", l, r)
	}
}

func TestVoiceDelayStaysBounded(t *testing.T) {
	d := NewVoiceDelay(8000, 0.5)
	d.Set(0.01, 10, 0.5)
	d.SetEnabled(true)
	for i := 0; i < 80000; i++ {
		l, _ := d.Process(1, 1)
		if l > 25 || math.IsNaN(float64(l)) {
			t.Fatalf("feedback runaway at %d: %f", i, l)
		}
	}
}

func rmsThrough(f *Biquad, hz float64, sr int) float64 {
	sum := 0.0
	n := sr / 2
	for i := 0; i < n; i++ {
		x := float32(math.Sin(2 * math.Pi * hz * float64(i) / float64(sr)))
		y, _ := f.Process(x, x)
		if i > n/2 {
			sum += float64(y * y)
		}
	}
	return math.Sqrt(sum / float64(n-n/2))
}

func TestBiquadResponses(t *testing.T) {
	cases := []struct {
		name      string
		kind      FilterType
		pass, cut float64
	}{
		{"lowpass", FilterLowPass, 100, 10000},
		{"highpass", FilterHighPass, 10000, 100},
		{"bandpass", FilterBandPass, 1000, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := NewBiquad(48000)
			f.Set(tc.kind, 1000, 0.707)
			pass := rmsThrough(f, tc.pass, 48000)
			f.Reset()
			cut := rmsThrough(f, tc.cut, 48000)
			if pass < 4*cut {
				t.Fatalf("pass band rms %f not well above stop band %f", pass, cut)
			}
		})
	}
}

func TestBiquadOffPassesThrough(t *testing.T) {
	f := NewBiquad(48000)
	f.Set(FilterOff, 500, 2)
	l, r := f.Process(0.25, -0.5)
	if l != 0.25 || r != -0.5 {
		t.Fatalf("off filter altered signal: %f %f", l, r)
	}
}

func TestBiquadClamps(t *testing.T) {
	f := NewBiquad(48000)
	f.Set(FilterLowPass, -5, 0.1)
	if f.Cutoff() != MinCutoff || f.Resonance() != MinResonance {
		t.Fatalf("low clamp = %v / %v", f.Cutoff(), f.Resonance())
	}
	f.Set(FilterLowPass, 1e6, 0.707)
	if f.Cutoff() != MaxCutoff {
		t.Fatalf("high clamp = %v", f.Cutoff())
	}
	f = NewBiquad(22050)
	f.Set(FilterLowPass, 1e6, 0.707)
	if f.Cutoff() != 0.49*22050 {
		t.Fatalf("nyquist clamp = %v", f.Cutoff())
	}
}
