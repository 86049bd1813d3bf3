package spectrum

import (
	"math"
	"testing"
)

func tone(freqs []float64, sr, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		for _, f := range freqs {
			out[i] += math.Sin(2 * math.Pi * f * float64(i) / float64(sr))
		}
	}
	return out
}

func TestDominantFrequency(t *testing.T) {
	for _, f := range []float64{110, 440, 523.25, 3000} {
		got := DominantFrequency(tone([]float64{f}, 48000, 4800), 48000)
		if math.Abs(got-f) > 1 {
			t.Fatalf("dominant frequency of %v Hz tone = %v", f, got)
		}
	}
}

func TestPeaksFindsBothTones(t *testing.T) {
	s := Analyze(tone([]float64{220, 660}, 48000, 9600), 48000)
	peaks := s.Peaks(2)
	if len(peaks) != 2 {
		t.Fatalf("peaks = %v", peaks)
	}
	found := map[int]bool{}
	for _, p := range peaks {
		found[int(math.Round(p/10))*10] = true
	}
	if !found[220] || !found[660] {
		t.Fatalf("expected 220 and 660 Hz peaks, got %v", peaks)
	}
}

func TestEnergyBands(t *testing.T) {
	s := Analyze(tone([]float64{1000}, 48000, 4800), 48000)
	in := s.Energy(950, 1050)
	out := s.Energy(2000, 5000)
	if in < 100*out {
		t.Fatalf("band energy in=%g out=%g", in, out)
	}
}

func TestEmptyInput(t *testing.T) {
	if f := DominantFrequency(nil, 48000); f != 0 {
		t.Fatalf("empty input gave %v", f)
	}
	if RMS(nil) != 0 {
		t.Fatalf("RMS of nothing should be 0")
	}
}
