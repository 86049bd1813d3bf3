// Package voice implements one synthesizer voice: oscillators, envelope,
// physical model, modulation routing, pan and delay.
package voice

import (
	"github.com/superterminal/voicesynth/internal/osc"
	"github.com/superterminal/voicesynth/internal/physical"
)

// Route connects one LFO (1-based, 0 = off) to a voice destination.
type Route struct {
	LFO   int
	Depth float64
}

// Params is the control-side configuration of a voice. It is a plain value
// so the controller can copy it into the audio path without allocating.
type Params struct {
	Waveform   osc.Waveform
	Waveform2  osc.Waveform
	Combine    bool
	PulseWidth float64
	Detune     float64 // cents
	Portamento float64 // seconds

	RingMod int // source voice, 0 = none
	Sync    int // source voice, 0 = none
	TestBit bool

	AttackMs  float64
	DecayMs   float64
	Sustain   float64
	ReleaseMs float64

	Volume float64
	Pan    float64

	DelayEnabled  bool
	DelayTime     float64
	DelayFeedback float64
	DelayMix      float64

	FilterRoute bool

	LFOPitch  Route // depth in cents
	LFOVolume Route // linear gain
	LFOFilter Route // Hz
	LFOPulse  Route // pulse width units

	Physical physical.Params
}

// DefaultParams returns the power-on voice configuration.
func DefaultParams() Params {
	return Params{
		Waveform:      osc.Sine,
		Waveform2:     osc.Silence,
		PulseWidth:    0.5,
		AttackMs:      10,
		DecayMs:       100,
		Sustain:       0.7,
		ReleaseMs:     200,
		Volume:        1,
		DelayTime:     0.25,
		DelayFeedback: 0.3,
		DelayMix:      0.3,
		Physical:      physical.DefaultParams(),
	}
}
