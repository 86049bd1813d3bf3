// Package osc generates single oscillator samples for the voice engine.
package osc

import (
	"math"
	"strings"
)

const twoPi = math.Pi * 2

// Waveform selects an oscillator shape.
type Waveform int

const (
	Silence Waveform = iota
	Sine
	Square
	Saw
	Triangle
	Noise
	Pulse
	Physical
)

var waveformNames = [...]string{"silence", "sine", "square", "saw", "triangle", "noise", "pulse", "physical"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return "unknown"
	}
	return waveformNames[w]
}

// Valid reports whether w names a known shape.
func (w Waveform) Valid() bool {
	return w >= Silence && w <= Physical
}

// ParseWaveform resolves a case-insensitive waveform name.
func ParseWaveform(name string) (Waveform, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "silence", "none":
		return Silence, true
	case "sine", "sin":
		return Sine, true
	case "square", "sqr":
		return Square, true
	case "saw", "sawtooth":
		return Saw, true
	case "triangle", "tri":
		return Triangle, true
	case "noise":
		return Noise, true
	case "pulse":
		return Pulse, true
	case "physical":
		return Physical, true
	}
	return Silence, false
}

// Pulse width limits keep the pulse from collapsing into DC.
const (
	MinPulseWidth = 0.01
	MaxPulseWidth = 0.99
)

// ClampPulseWidth limits pw to the audible pulse range.
func ClampPulseWidth(pw float64) float64 {
	if pw < MinPulseWidth || math.IsNaN(pw) {
		return MinPulseWidth
	}
	if pw > MaxPulseWidth {
		return MaxPulseWidth
	}
	return pw
}

// Sample returns one sample of w at phase in [0,1). Noise steps the LFSR.
// Physical and unknown shapes produce silence; the voice owns the model.
func Sample(w Waveform, phase, pulseWidth float64, noise *LFSR) float64 {
	switch w {
	case Sine:
		return math.Sin(twoPi * phase)
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Saw:
		return 2*phase - 1
	case Triangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	case Pulse:
		if phase < ClampPulseWidth(pulseWidth) {
			return 1
		}
		return -1
	case Noise:
		if noise == nil {
			return 0
		}
		return noise.Step()
	default:
		return 0
	}
}

// Combine mixes a primary and secondary sample. Averaging keeps the result in [-1,1].
func Combine(a, b float64) float64 {
	return (a + b) * 0.5
}

// WrapPhase advances phase by inc and folds it into [0,1).
// wrapped reports whether the phase crossed 1 (or 0 for negative increments).
func WrapPhase(phase, inc float64) (next float64, wrapped bool) {
	next = phase + inc
	if next >= 1 || next < 0 {
		next -= math.Floor(next)
		if next >= 1 {
			next = 0
		}
		wrapped = true
	}
	return next, wrapped
}
