package pcm

import "errors"

// ErrUnsupported is returned for audio encodings the decoders cannot handle.
var ErrUnsupported = errors.New("unsupported audio format")

// Buffer is interleaved 32-bit float PCM.
type Buffer struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// NewStereo allocates a silent stereo buffer of the given frame count.
func NewStereo(sampleRate int, frames int) *Buffer {
	if frames < 0 {
		frames = 0
	}
	return &Buffer{SampleRate: sampleRate, Channels: 2, Samples: make([]float32, frames*2)}
}

// Frames returns the number of sample frames.
func (b *Buffer) Frames() int {
	if b == nil || b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the length in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Bytes returns the in-memory size of the sample data.
func (b *Buffer) Bytes() int {
	if b == nil {
		return 0
	}
	return len(b.Samples) * 4
}

// Scale multiplies every sample by gain and clips to [-1,1].
func (b *Buffer) Scale(gain float64) {
	g := float32(gain)
	for i, s := range b.Samples {
		b.Samples[i] = Clip(s * g)
	}
}

// Peak returns the largest absolute sample value.
func (b *Buffer) Peak() float32 {
	var peak float32
	for _, s := range b.Samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

// Channel extracts one channel as float64, handy for analysis.
func (b *Buffer) Channel(ch int) []float64 {
	frames := b.Frames()
	out := make([]float64, frames)
	if ch < 0 || ch >= b.Channels {
		return out
	}
	for i := 0; i < frames; i++ {
		out[i] = float64(b.Samples[i*b.Channels+ch])
	}
	return out
}

// Clip limits s to [-1,1].
func Clip(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
