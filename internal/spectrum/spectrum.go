// Package spectrum provides FFT-based analysis of rendered audio.
package spectrum

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/mjibson/go-dsp/fft"
)

// minFFTSize zero-pads short inputs for finer bin spacing.
const minFFTSize = 1 << 16

// Spectrum is a one-sided magnitude spectrum.
type Spectrum struct {
	BinHz      float64
	Magnitudes []float64
}

// Analyze windows samples with a Hann window and returns the magnitude spectrum.
func Analyze(samples []float64, sampleRate int) Spectrum {
	n := len(samples)
	if n == 0 || sampleRate <= 0 {
		return Spectrum{}
	}
	size := 1
	for size < n {
		size <<= 1
	}
	if size < minFFTSize {
		size = minFFTSize
	}
	data := make([]float64, size)
	for i, s := range samples {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(max(n-1, 1)))
		data[i] = s * w
	}
	res := fft.FFTReal(data)
	mags := make([]float64, size/2+1)
	for i := range mags {
		mags[i] = cmplx.Abs(res[i]) / float64(n)
	}
	return Spectrum{BinHz: float64(sampleRate) / float64(size), Magnitudes: mags}
}

// Frequency returns the interpolated frequency of bin i using a parabolic
// fit over its neighbours.
func (s Spectrum) Frequency(i int) float64 {
	if i <= 0 || i >= len(s.Magnitudes)-1 {
		return float64(i) * s.BinHz
	}
	a, b, c := s.Magnitudes[i-1], s.Magnitudes[i], s.Magnitudes[i+1]
	den := a - 2*b + c
	off := 0.0
	if den != 0 {
		off = 0.5 * (a - c) / den
	}
	return (float64(i) + off) * s.BinHz
}

// Peak returns the frequency of the largest bin above DC.
func (s Spectrum) Peak() float64 {
	best, at := 0.0, 0
	for i := 1; i < len(s.Magnitudes); i++ {
		if s.Magnitudes[i] > best {
			best, at = s.Magnitudes[i], i
		}
	}
	return s.Frequency(at)
}

// Peaks returns up to n local-maximum frequencies, strongest first.
func (s Spectrum) Peaks(n int) []float64 {
	type bin struct {
		i int
		m float64
	}
	var bins []bin
	for i := 1; i < len(s.Magnitudes)-1; i++ {
		m := s.Magnitudes[i]
		if m > s.Magnitudes[i-1] && m >= s.Magnitudes[i+1] {
			bins = append(bins, bin{i, m})
		}
	}
	sort.Slice(bins, func(a, b int) bool { return bins[a].m > bins[b].m })
	out := make([]float64, 0, n)
	for _, b := range bins {
		if len(out) == n {
			break
		}
		out = append(out, s.Frequency(b.i))
	}
	return out
}

// Energy sums squared magnitudes between lo and hi Hz.
func (s Spectrum) Energy(lo, hi float64) float64 {
	if s.BinHz == 0 {
		return 0
	}
	sum := 0.0
	for i := int(math.Ceil(lo / s.BinHz)); i <= int(hi/s.BinHz) && i < len(s.Magnitudes); i++ {
		if i >= 0 {
			sum += s.Magnitudes[i] * s.Magnitudes[i]
		}
	}
	return sum
}

// DominantFrequency is Analyze followed by Peak.
func DominantFrequency(samples []float64, sampleRate int) float64 {
	return Analyze(samples, sampleRate).Peak()
}

// RMS returns the root-mean-square level of samples.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}
