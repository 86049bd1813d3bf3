package osc

// lfsrTaps is the Galois form of x^32 + x^22 + x^2 + x + 1.
const lfsrTaps = 0x80200003

// DefaultSeed is used whenever a zero seed would lock the register.
const DefaultSeed = 0xACE1ACE1

// LFSR is a 32-bit Galois linear-feedback shift register.
type LFSR uint32

// NewLFSR returns a register seeded with seed, never zero.
func NewLFSR(seed uint32) LFSR {
	if seed == 0 {
		seed = DefaultSeed
	}
	return LFSR(seed)
}

// Reset reloads the register.
func (l *LFSR) Reset(seed uint32) {
	*l = NewLFSR(seed)
}

// Step shifts once and returns +1 or -1 from the new low bit.
func (l *LFSR) Step() float64 {
	s := uint32(*l)
	if s == 0 {
		s = DefaultSeed
	}
	lsb := s & 1
	s >>= 1
	if lsb != 0 {
		s ^= lfsrTaps
	}
	*l = LFSR(s)
	if s&1 != 0 {
		return 1
	}
	return -1
}
