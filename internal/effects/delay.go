package effects

import "math"

// MaxFeedback bounds the echo loop gain so repeats always decay.
const MaxFeedback = 0.95

// VoiceDelay is a stereo delay line with fractional read position.
// The ring is sized once for the maximum delay time.
type VoiceDelay struct {
	bufL, bufR []float32
	pos        int
	sampleRate float64
	maxSeconds float64
	delay      float64 // in samples, within [1, len-1]
	seconds    float64
	feedback   float64
	mix        float64
	enabled    bool
}

// NewVoiceDelay allocates a ring of sampleRate*maxSeconds frames.
func NewVoiceDelay(sampleRate int, maxSeconds float64) *VoiceDelay {
	if maxSeconds <= 0 {
		maxSeconds = 2
	}
	n := int(float64(sampleRate)*maxSeconds) + 1
	if n < 2 {
		n = 2
	}
	d := &VoiceDelay{
		bufL:       make([]float32, n),
		bufR:       make([]float32, n),
		sampleRate: float64(sampleRate),
		maxSeconds: maxSeconds,
	}
	d.Set(0.25, 0.3, 0.3)
	return d
}

// Set updates delay time, feedback and wet mix, clamping each to its domain.
func (d *VoiceDelay) Set(seconds, feedback, mix float64) {
	d.seconds = clampF(seconds, 0, d.maxSeconds)
	d.delay = clampF(d.seconds*d.sampleRate, 1, float64(len(d.bufL)-1))
	d.feedback = clampF(feedback, 0, MaxFeedback)
	d.mix = clampF(mix, 0, 1)
}

func (d *VoiceDelay) SetEnabled(on bool) { d.enabled = on }
func (d *VoiceDelay) Enabled() bool      { return d.enabled }
func (d *VoiceDelay) Seconds() float64   { return d.seconds }
func (d *VoiceDelay) Feedback() float64  { return d.feedback }
func (d *VoiceDelay) Mix() float64       { return d.mix }
func (d *VoiceDelay) MaxSeconds() float64 {
	return d.maxSeconds
}

func (d *VoiceDelay) read(buf []float32) float32 {
	n := len(buf)
	rp := float64(d.pos) - d.delay
	if rp < 0 {
		rp += float64(n)
	}
	i0 := int(rp)
	frac := float32(rp - float64(i0))
	i1 := i0 + 1
	if i1 >= n {
		i1 = 0
	}
	return buf[i0]*(1-frac) + buf[i1]*frac
}

// Process mixes the delayed signal into one frame. Disabled lines pass through.
func (d *VoiceDelay) Process(l, r float32) (float32, float32) {
	if !d.enabled {
		return l, r
	}
	fb, mix := float32(d.feedback), float32(d.mix)
	wetL := d.read(d.bufL)
	wetR := d.read(d.bufR)
	d.bufL[d.pos] = flush(l + fb*wetL)
	d.bufR[d.pos] = flush(r + fb*wetR)
	d.pos++
	if d.pos >= len(d.bufL) {
		d.pos = 0
	}
	return l*(1-mix) + wetL*mix, r*(1-mix) + wetR*mix
}

// Reset zeroes the ring.
func (d *VoiceDelay) Reset() {
	clear(d.bufL)
	clear(d.bufR)
	d.pos = 0
}

// DecaySeconds estimates how long the echoes stay above -60 dB.
func (d *VoiceDelay) DecaySeconds() float64 {
	if !d.enabled || d.mix == 0 || d.seconds == 0 {
		return 0
	}
	fb := d.feedback
	if fb <= 0 {
		return d.seconds
	}
	repeats := math.Ceil(math.Log(1e-3) / math.Log(fb))
	return (repeats + 1) * d.seconds
}

func flush(v float32) float32 {
	if v > -1e-20 && v < 1e-20 {
		return 0
	}
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return 0
	}
	return v
}

func clampF(v, lo, hi float64) float64 {
	if !(v > lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
