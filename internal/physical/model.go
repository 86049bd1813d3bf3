// Package physical implements the per-voice physical models: a Karplus-Strong
// string, modal bar/drum/glass resonators and a reed-driven tube waveguide.
package physical

import (
	"math"
	"strings"
)

// Model selects the physical model.
type Model int

const (
	Plucked Model = iota
	Bar
	Tube
	Drum
	Glass
)

func (m Model) String() string {
	switch m {
	case Bar:
		return "bar"
	case Tube:
		return "tube"
	case Drum:
		return "drum"
	case Glass:
		return "glass"
	default:
		return "plucked"
	}
}

// ParseModel resolves a case-insensitive model name.
func ParseModel(name string) (Model, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "plucked", "pluck", "string":
		return Plucked, true
	case "bar", "struck", "struckbar":
		return Bar, true
	case "tube", "blown", "blowntube":
		return Tube, true
	case "drum", "drumhead":
		return Drum, true
	case "glass", "shattered", "shatteredglass":
		return Glass, true
	}
	return Plucked, false
}

// Params are the model controls, each in [0,1].
type Params struct {
	Model      Model
	Damping    float64
	Brightness float64
	Excitation float64
	Resonance  float64
	Tension    float64
	Pressure   float64
}

// DefaultParams returns a mid-range plucked string.
func DefaultParams() Params {
	return Params{
		Model:      Plucked,
		Damping:    0.3,
		Brightness: 0.5,
		Excitation: 0.8,
		Resonance:  0.5,
		Tension:    0.5,
		Pressure:   0.5,
	}
}

// Clamped returns p with every control limited to [0,1].
func (p Params) Clamped() Params {
	if p.Model < Plucked || p.Model > Glass {
		p.Model = Plucked
	}
	p.Damping = unit(p.Damping)
	p.Brightness = unit(p.Brightness)
	p.Excitation = unit(p.Excitation)
	p.Resonance = unit(p.Resonance)
	p.Tension = unit(p.Tension)
	p.Pressure = unit(p.Pressure)
	return p
}

// MinFrequency is the lowest pitch the delay lines can hold.
const MinFrequency = 20.0

const maxModes = 6

var (
	barRatiosBright = [...]float64{1, 3.99, 10.65}
	barRatiosDark   = [...]float64{1, 2.76, 5.40}
	drumRatios      = [...]float64{1, 1.59, 2.14, 2.30, 2.65, 2.92}
	glassRatios     = [...]float64{1, 2.32, 4.25, 6.63, 9.38, 12.1}
)

type mode struct {
	inc   float64 // phase increment per sample
	phase float64
	amp   float64
	decay float64 // per-sample amplitude multiplier
}

// State is the runtime state of one voice's model. All buffers are allocated
// by New; Trigger and Step never allocate.
type State struct {
	sampleRate float64
	line       []float64
	length     int
	pos        int
	modes      [maxModes]mode
	numModes   int
	norm       float64
	click      float64
	clickDecay float64
	lpState    float64
	rng        uint32
	model      Model
	triggered  bool
	last       float64
}

// New allocates a model state for sampleRate.
func New(sampleRate int) *State {
	sr := float64(sampleRate)
	if sr <= 0 {
		sr = 48000
	}
	return &State{
		sampleRate: sr,
		line:       make([]float64, int(sr/MinFrequency)+4),
		rng:        0x1234567,
	}
}

// Triggered reports whether the model has been excited since the last reset.
func (s *State) Triggered() bool { return s.triggered }

// Last returns the most recent output sample.
func (s *State) Last() float64 { return s.last }

// Reset silences the model until the next Trigger.
func (s *State) Reset() {
	clear(s.line)
	s.pos = 0
	s.length = 0
	s.numModes = 0
	s.click = 0
	s.lpState = 0
	s.triggered = false
	s.last = 0
}

// Trigger resets internal state and fires the excitation at freq Hz.
func (s *State) Trigger(p Params, freq float64) {
	p = p.Clamped()
	s.Reset()
	if !(freq >= MinFrequency) {
		freq = MinFrequency
	}
	if freq > 0.45*s.sampleRate {
		freq = 0.45 * s.sampleRate
	}
	s.model = p.Model
	switch p.Model {
	case Plucked:
		s.pluck(p, freq)
	case Tube:
		s.blow(p, freq)
	case Bar:
		ratios := barRatiosDark[:]
		if p.Brightness >= 0.5 {
			ratios = barRatiosBright[:]
		}
		base := 0.15 + 2.5*(1-p.Damping)
		s.strike(p, freq, ratios, base, 0, 0.5)
		s.click = p.Excitation * (0.3 + 0.5*p.Brightness)
		s.clickDecay = s.decayFor(0.004)
	case Drum:
		base := 0.05 + 0.8*(1-p.Damping)
		s.strike(p, freq, drumRatios[:], base, 0, 0.8)
		s.click = p.Excitation * 0.6 * p.Brightness
		s.clickDecay = s.decayFor(0.02)
	case Glass:
		base := 0.02 + 0.3*(1-p.Damping)
		s.strike(p, freq, glassRatios[:], base, 0.04, 0.85)
		s.click = p.Excitation * 0.8
		s.clickDecay = s.decayFor(0.01)
	}
	s.triggered = true
}

// Step produces one sample. Untriggered models return 0.
func (s *State) Step(p Params) float64 {
	if !s.triggered {
		return 0
	}
	var out float64
	switch s.model {
	case Plucked:
		out = s.stepString(p)
	case Tube:
		out = s.stepTube(p)
	default:
		out = s.stepModes()
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		out = 0
	}
	if out > 1 {
		out = 1
	} else if out < -1 {
		out = -1
	}
	s.last = out
	return out
}

func (s *State) pluck(p Params, freq float64) {
	// Higher tension shortens the line slightly, raising pitch.
	n := int(math.Round(s.sampleRate / freq * (1 + 0.02*(0.5-p.Tension))))
	s.length = clampInt(n, 2, len(s.line))
	smooth := 0.9 * (1 - p.Brightness)
	prev := 0.0
	for i := 0; i < s.length; i++ {
		x := s.noise() * p.Excitation
		prev = smooth*prev + (1-smooth)*x
		s.line[i] = prev
	}
}

func (s *State) stepString(p Params) float64 {
	i0 := s.pos
	i1 := s.pos + 1
	if i1 >= s.length {
		i1 = 0
	}
	out := s.line[i0]
	// Brightness 1 keeps the current tap, 0 averages both equally.
	w := 0.5 + 0.5*unit(p.Brightness)
	gain := 0.9995 - 0.02*unit(p.Damping)
	s.line[i0] = flush((w*out + (1-w)*s.line[i1]) * gain)
	s.pos = i1
	return out
}

func (s *State) blow(p Params, freq float64) {
	n := int(math.Round(s.sampleRate / freq / 2))
	s.length = clampInt(n, 2, len(s.line))
}

func (s *State) stepTube(p Params) float64 {
	out := s.line[s.pos]
	// One-pole loss at the open end, inverted reflection with gain set by resonance.
	s.lpState = 0.5*out + 0.5*s.lpState
	reflect := -(0.80 + 0.19*unit(p.Resonance)) * s.lpState
	breath := 0.55 + 0.45*unit(p.Pressure) + 0.02*s.noise()
	diff := reflect - breath
	reed := 0.7 - 0.3*diff
	if reed > 1 {
		reed = 1
	} else if reed < -1 {
		reed = -1
	}
	s.line[s.pos] = flush(breath + diff*reed)
	s.pos++
	if s.pos >= s.length {
		s.pos = 0
	}
	return out * 0.7
}

func (s *State) strike(p Params, freq float64, ratios []float64, baseSec, jitter, rolloff float64) {
	s.numModes = 0
	s.norm = 0
	amp := p.Excitation
	for k, r := range ratios {
		if k >= maxModes {
			break
		}
		f := freq * r
		if jitter > 0 {
			f *= 1 + jitter*s.noise()
		}
		if f >= 0.45*s.sampleRate {
			continue
		}
		t60 := baseSec / (1 + 0.5*float64(k))
		s.modes[s.numModes] = mode{
			inc:   f / s.sampleRate,
			amp:   amp,
			decay: s.decayFor(t60),
		}
		s.norm += amp
		s.numModes++
		amp *= rolloff
	}
	if s.norm < 1 {
		s.norm = 1
	}
}

func (s *State) stepModes() float64 {
	sum := 0.0
	for i := 0; i < s.numModes; i++ {
		m := &s.modes[i]
		sum += m.amp * math.Sin(2*math.Pi*m.phase)
		m.phase += m.inc
		if m.phase >= 1 {
			m.phase -= 1
		}
		m.amp = flush(m.amp * m.decay)
	}
	if s.click > 0 {
		sum += s.click * s.noise()
		s.click = flush(s.click * s.clickDecay)
	}
	return sum / s.norm
}

// decayFor returns the per-sample multiplier that falls 60 dB in t60 seconds.
func (s *State) decayFor(t60 float64) float64 {
	if t60 <= 0 {
		return 0
	}
	return math.Exp(math.Log(1e-3) / (t60 * s.sampleRate))
}

func (s *State) noise() float64 {
	x := s.rng
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	s.rng = x
	return float64(x)/float64(math.MaxUint32)*2 - 1
}

func flush(v float64) float64 {
	if v > -1e-15 && v < 1e-15 {
		return 0
	}
	return v
}

func unit(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
