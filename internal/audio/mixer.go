package audio

import (
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/superterminal/voicesynth/internal/pcm"
)

const resampleQuality = 4

// Mixer plays finished PCM buffers over the live synth output. Each Play
// starts an independent one-shot stream; finished streams drop out.
type Mixer struct {
	mu   sync.Mutex
	rate beep.SampleRate
	mix  beep.Mixer
	buf  [][2]float64
}

func NewMixer(sampleRate int) *Mixer {
	return &Mixer{rate: beep.SampleRate(sampleRate)}
}

// Play queues b at volume (1 is unity) and pan in [-1,1]. Buffers at a
// different rate are resampled.
func (m *Mixer) Play(b *pcm.Buffer, volume, pan float64) {
	if b == nil || b.Frames() == 0 || b.SampleRate <= 0 {
		return
	}
	volume = min(max(volume, 0), 4)
	pan = min(max(pan, -1), 1)
	var s beep.Streamer = &bufferStreamer{b: b}
	if src := beep.SampleRate(b.SampleRate); src != m.rate {
		s = beep.Resample(resampleQuality, src, m.rate, s)
	}
	s = &effects.Gain{Streamer: s, Gain: volume - 1}
	s = &effects.Pan{Streamer: s, Pan: pan}
	m.mu.Lock()
	m.mix.Add(s)
	m.mu.Unlock()
}

// Active returns the number of streams still playing.
func (m *Mixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mix.Len()
}

// Stop drops every playing stream.
func (m *Mixer) Stop() {
	m.mu.Lock()
	m.mix.Clear()
	m.mu.Unlock()
}

// Process adds the mix into dst, interleaved stereo.
func (m *Mixer) Process(dst []float32) {
	frames := len(dst) / 2
	m.mu.Lock()
	defer m.mu.Unlock()
	if frames == 0 || m.mix.Len() == 0 {
		return
	}
	if cap(m.buf) < frames {
		m.buf = make([][2]float64, frames)
	}
	buf := m.buf[:frames]
	clear(buf)
	n, _ := m.mix.Stream(buf)
	for i := 0; i < n; i++ {
		dst[i*2] += float32(buf[i][0])
		dst[i*2+1] += float32(buf[i][1])
	}
}

// bufferStreamer reads a pcm.Buffer once. Mono is copied to both sides and
// channels past the second are ignored.
type bufferStreamer struct {
	b   *pcm.Buffer
	pos int
}

func (s *bufferStreamer) Stream(samples [][2]float64) (int, bool) {
	frames := s.b.Frames()
	if s.pos >= frames {
		return 0, false
	}
	ch := s.b.Channels
	n := min(len(samples), frames-s.pos)
	for i := 0; i < n; i++ {
		base := (s.pos + i) * ch
		l := float64(s.b.Samples[base])
		r := l
		if ch > 1 {
			r = float64(s.b.Samples[base+1])
		}
		samples[i] = [2]float64{l, r}
	}
	s.pos += n
	return n, true
}

func (s *bufferStreamer) Err() error { return nil }
