package synth

import (
	"github.com/superterminal/voicesynth/internal/effects"
	"github.com/superterminal/voicesynth/internal/lfo"
	"github.com/superterminal/voicesynth/internal/osc"
	"github.com/superterminal/voicesynth/internal/physical"
)

// Typed wrappers over Exec. Voice and LFO indices are 1-based.

func (c *Controller) SetWaveform(v int, w osc.Waveform) {
	c.Exec(Cmd(OpWaveform, v, float64(w)))
}

func (c *Controller) SetWaveform2(v int, w osc.Waveform, combine bool) {
	c.Exec(Cmd(OpWaveform2, v, float64(w), boolArg(combine)))
}

func (c *Controller) SetFrequency(v int, hz float64) {
	c.Exec(Cmd(OpFrequency, v, hz))
}

func (c *Controller) SetNote(v int, midi int) {
	c.Exec(Cmd(OpNote, v, float64(midi)))
}

func (c *Controller) SetNoteName(v int, name string) {
	c.Exec(Command{Op: OpNoteName, Target: v, Text: name})
}

func (c *Controller) SetEnvelope(v int, attackMs, decayMs, sustain, releaseMs float64) {
	c.Exec(Cmd(OpEnvelope, v, attackMs, decayMs, sustain, releaseMs))
}

func (c *Controller) SetGate(v int, on bool) {
	c.Exec(Cmd(OpGate, v, boolArg(on)))
}

func (c *Controller) SetVolume(v int, volume float64) {
	c.Exec(Cmd(OpVolume, v, volume))
}

func (c *Controller) SetPan(v int, pan float64) {
	c.Exec(Cmd(OpPan, v, pan))
}

func (c *Controller) SetPulseWidth(v int, width float64) {
	c.Exec(Cmd(OpPulseWidth, v, width))
}

func (c *Controller) SetDetune(v int, cents float64) {
	c.Exec(Cmd(OpDetune, v, cents))
}

func (c *Controller) SetPortamento(v int, seconds float64) {
	c.Exec(Cmd(OpPortamento, v, seconds))
}

func (c *Controller) SetRingMod(v, source int) {
	c.Exec(Cmd(OpRingMod, v, float64(source)))
}

func (c *Controller) SetSync(v, source int) {
	c.Exec(Cmd(OpSync, v, float64(source)))
}

func (c *Controller) SetTestBit(v int, on bool) {
	c.Exec(Cmd(OpTestBit, v, boolArg(on)))
}

func (c *Controller) SetDelayEnabled(v int, on bool) {
	c.Exec(Cmd(OpDelayEnable, v, boolArg(on)))
}

func (c *Controller) SetDelayTime(v int, seconds float64) {
	c.Exec(Cmd(OpDelayTime, v, seconds))
}

func (c *Controller) SetDelayFeedback(v int, feedback float64) {
	c.Exec(Cmd(OpDelayFeedback, v, feedback))
}

func (c *Controller) SetDelayMix(v int, mix float64) {
	c.Exec(Cmd(OpDelayMix, v, mix))
}

// SetDelay sets all three delay parameters and enables the line.
func (c *Controller) SetDelay(v int, seconds, feedback, mix float64) {
	c.SetDelayTime(v, seconds)
	c.SetDelayFeedback(v, feedback)
	c.SetDelayMix(v, mix)
	c.SetDelayEnabled(v, true)
}

func (c *Controller) SetFilterRoute(v int, on bool) {
	c.Exec(Cmd(OpFilterRoute, v, boolArg(on)))
}

func (c *Controller) SetLFOPitch(v, lfoIndex int, cents float64) {
	c.Exec(Cmd(OpLFOPitch, v, float64(lfoIndex), cents))
}

func (c *Controller) SetLFOVolume(v, lfoIndex int, depth float64) {
	c.Exec(Cmd(OpLFOVolume, v, float64(lfoIndex), depth))
}

func (c *Controller) SetLFOFilter(v, lfoIndex int, hz float64) {
	c.Exec(Cmd(OpLFOFilter, v, float64(lfoIndex), hz))
}

func (c *Controller) SetLFOPulseWidth(v, lfoIndex int, depth float64) {
	c.Exec(Cmd(OpLFOPulse, v, float64(lfoIndex), depth))
}

func (c *Controller) SetPhysicalModel(v int, m physical.Model) {
	c.Exec(Cmd(OpPhysicalModel, v, float64(m)))
}

func (c *Controller) SetDamping(v int, amount float64) {
	c.Exec(Cmd(OpDamping, v, amount))
}

func (c *Controller) SetBrightness(v int, amount float64) {
	c.Exec(Cmd(OpBrightness, v, amount))
}

func (c *Controller) SetExcitation(v int, amount float64) {
	c.Exec(Cmd(OpExcitation, v, amount))
}

func (c *Controller) SetResonance(v int, amount float64) {
	c.Exec(Cmd(OpResonance, v, amount))
}

func (c *Controller) SetTension(v int, amount float64) {
	c.Exec(Cmd(OpTension, v, amount))
}

func (c *Controller) SetPressure(v int, amount float64) {
	c.Exec(Cmd(OpPressure, v, amount))
}

func (c *Controller) TriggerPhysical(v int) {
	c.Exec(Cmd(OpTrigger, v))
}

// PlayNote sets the note, opens the gate and closes it after seconds.
func (c *Controller) PlayNote(v int, midi int, seconds float64) {
	c.Exec(Cmd(OpPlayNote, v, float64(midi), seconds))
}

func (c *Controller) SetFilterType(t effects.FilterType) {
	c.Exec(Cmd(OpFilterType, 0, float64(t)))
}

func (c *Controller) SetFilterCutoff(hz float64) {
	c.Exec(Cmd(OpFilterCutoff, 0, hz))
}

func (c *Controller) SetFilterResonance(q float64) {
	c.Exec(Cmd(OpFilterResonance, 0, q))
}

func (c *Controller) SetFilterEnabled(on bool) {
	c.Exec(Cmd(OpFilterEnabled, 0, boolArg(on)))
}

func (c *Controller) SetLFOWaveform(i int, w lfo.Waveform) {
	c.Exec(Cmd(OpLFOWaveform, i, float64(w)))
}

func (c *Controller) SetLFORate(i int, hz float64) {
	c.Exec(Cmd(OpLFORate, i, hz))
}

func (c *Controller) SetLFOEnabled(i int, on bool) {
	c.Exec(Cmd(OpLFOEnabled, i, boolArg(on)))
}

func (c *Controller) ResetLFO(i int) {
	c.Exec(Cmd(OpLFOReset, i))
}

// ResetAllVoices gates every voice off, idles envelopes and clears delay
// lines. Oscillator phases are preserved.
func (c *Controller) ResetAllVoices() {
	c.Exec(Cmd(OpResetAll, 0))
}

// MarkTempo records a tempo change for an attached timeline. It has no
// effect on the sound.
func (c *Controller) MarkTempo(bpm float64) {
	c.Exec(Cmd(OpTempo, 0, bpm))
}
