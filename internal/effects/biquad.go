// Package effects holds the signal processors on the voice path: the shared
// biquad filter and the per-voice stereo delay.
package effects

import (
	"math"
	"strings"
)

// FilterType selects the biquad response.
type FilterType int

const (
	FilterOff FilterType = iota
	FilterLowPass
	FilterHighPass
	FilterBandPass
)

func (t FilterType) String() string {
	switch t {
	case FilterLowPass:
		return "lowpass"
	case FilterHighPass:
		return "highpass"
	case FilterBandPass:
		return "bandpass"
	default:
		return "off"
	}
}

// ParseFilterType resolves a case-insensitive filter type name.
func ParseFilterType(name string) (FilterType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "off", "none":
		return FilterOff, true
	case "lowpass", "lp", "low":
		return FilterLowPass, true
	case "highpass", "hp", "high":
		return FilterHighPass, true
	case "bandpass", "bp", "band":
		return FilterBandPass, true
	}
	return FilterOff, false
}

// Cutoff and resonance bounds.
const (
	MinCutoff    = 20.0
	MaxCutoff    = 20000.0
	MinResonance = 0.5
	MaxResonance = 20.0
)

// ClampCutoff limits hz to the audible band and below Nyquist.
func ClampCutoff(hz float64, sampleRate float64) float64 {
	hi := MaxCutoff
	if sampleRate > 0 && 0.49*sampleRate < hi {
		hi = 0.49 * sampleRate
	}
	if !(hz > MinCutoff) {
		return MinCutoff
	}
	if hz > hi {
		return hi
	}
	return hz
}

// ClampResonance limits q to [MinResonance, MaxResonance].
func ClampResonance(q float64) float64 {
	if !(q > MinResonance) {
		return MinResonance
	}
	if q > MaxResonance {
		return MaxResonance
	}
	return q
}

type biquadHistory struct {
	x1, x2, y1, y2 float64
}

// Biquad is a stereo direct-form-1 filter using the RBJ cookbook coefficients.
type Biquad struct {
	sampleRate float64
	kind       FilterType
	cutoff     float64
	q          float64

	b0, b1, b2, a1, a2 float64
	left, right        biquadHistory
}

// NewBiquad returns a low-pass at 1 kHz, Q 0.707.
func NewBiquad(sampleRate int) *Biquad {
	f := &Biquad{sampleRate: float64(sampleRate), kind: FilterLowPass, cutoff: 1000, q: 0.707}
	f.recompute()
	return f
}

// Set updates the response and recomputes coefficients when anything changed.
func (f *Biquad) Set(kind FilterType, cutoff, q float64) {
	cutoff = ClampCutoff(cutoff, f.sampleRate)
	q = ClampResonance(q)
	if kind == f.kind && cutoff == f.cutoff && q == f.q {
		return
	}
	f.kind, f.cutoff, f.q = kind, cutoff, q
	f.recompute()
}

// SetSampleRate recomputes coefficients for a new rate and clears history.
func (f *Biquad) SetSampleRate(sampleRate int) {
	f.sampleRate = float64(sampleRate)
	f.cutoff = ClampCutoff(f.cutoff, f.sampleRate)
	f.recompute()
	f.Reset()
}

func (f *Biquad) Kind() FilterType   { return f.kind }
func (f *Biquad) Cutoff() float64    { return f.cutoff }
func (f *Biquad) Resonance() float64 { return f.q }

func (f *Biquad) recompute() {
	if f.kind == FilterOff || f.sampleRate <= 0 {
		f.b0, f.b1, f.b2, f.a1, f.a2 = 1, 0, 0, 0, 0
		return
	}
	w0 := 2 * math.Pi * f.cutoff / f.sampleRate
	cosw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * f.q)
	a0 := 1 + alpha
	var b0, b1, b2 float64
	switch f.kind {
	case FilterHighPass:
		b0 = (1 + cosw) / 2
		b1 = -(1 + cosw)
		b2 = (1 + cosw) / 2
	case FilterBandPass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
	default:
		b0 = (1 - cosw) / 2
		b1 = 1 - cosw
		b2 = (1 - cosw) / 2
	}
	f.b0 = b0 / a0
	f.b1 = b1 / a0
	f.b2 = b2 / a0
	f.a1 = -2 * cosw / a0
	f.a2 = (1 - alpha) / a0
}

func (f *Biquad) step(h *biquadHistory, x float64) float64 {
	y := f.b0*x + f.b1*h.x1 + f.b2*h.x2 - f.a1*h.y1 - f.a2*h.y2
	if math.Abs(y) < 1e-20 || math.IsNaN(y) || math.IsInf(y, 0) {
		y = 0
	}
	h.x2, h.x1 = h.x1, x
	h.y2, h.y1 = h.y1, y
	return y
}

// Process filters one stereo frame. FilterOff passes audio through.
func (f *Biquad) Process(l, r float32) (float32, float32) {
	if f.kind == FilterOff {
		return l, r
	}
	return float32(f.step(&f.left, float64(l))), float32(f.step(&f.right, float64(r)))
}

// Reset clears the filter history.
func (f *Biquad) Reset() {
	f.left = biquadHistory{}
	f.right = biquadHistory{}
}
