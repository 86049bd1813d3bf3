package lfo

// Count is the number of LFOs in a bank. Indices are 1-based.
const Count = 4

// DefaultRateHz is the rate a fresh LFO starts with.
const DefaultRateHz = 5.0

const defaultSeed = 0x2545F491

// Bank holds the four shared LFOs and the sample-and-hold RNG state.
// A Bank is a plain value; copying it copies all oscillator state.
type Bank struct {
	lfos [Count]LFO
	rng  uint32
}

// DefaultParams returns the power-on configuration of every LFO.
func DefaultParams() [Count]Params {
	var p [Count]Params
	for i := range p {
		p[i] = Params{Waveform: WaveSine, RateHz: DefaultRateHz, Enabled: true}
	}
	return p
}

// NewBank returns a bank with default parameters.
func NewBank() *Bank {
	b := &Bank{rng: defaultSeed}
	b.Apply(DefaultParams())
	return b
}

// Valid reports whether index addresses an LFO.
func Valid(index int) bool { return index >= 1 && index <= Count }

// Apply installs parameters for all LFOs without touching their phase.
func (b *Bank) Apply(p [Count]Params) {
	for i := range b.lfos {
		b.lfos[i].Set(p[i])
	}
}

// Step advances every LFO by dt.
func (b *Bank) Step(dt float64) {
	for i := range b.lfos {
		b.lfos[i].Step(dt, &b.rng)
	}
}

// Value returns the current output of LFO index, or 0 for index 0 or out of range.
func (b *Bank) Value(index int) float64 {
	if !Valid(index) {
		return 0
	}
	return b.lfos[index-1].Value()
}

// Phase returns the phase of LFO index.
func (b *Bank) Phase(index int) float64 {
	if !Valid(index) {
		return 0
	}
	return b.lfos[index-1].Phase()
}

// ResetPhase restarts LFO index from phase 0.
func (b *Bank) ResetPhase(index int) {
	if !Valid(index) {
		return
	}
	b.lfos[index-1].Reset(&b.rng)
}

// Reset restarts every LFO and reseeds the RNG.
func (b *Bank) Reset() {
	b.rng = defaultSeed
	for i := range b.lfos {
		b.lfos[i].Reset(&b.rng)
	}
}
