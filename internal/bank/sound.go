package bank

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/superterminal/voicesynth/internal/pcm"
)

// ErrEmptySound is returned when registering a buffer with no samples.
var ErrEmptySound = errors.New("bank: empty sound")

// SoundBank maps ids to PCM buffers. Registered buffers must not be
// modified afterwards.
type SoundBank struct {
	s *store[*pcm.Buffer]
}

// NewSoundBank returns an empty bank. log may be nil.
func NewSoundBank(log *slog.Logger) *SoundBank {
	return &SoundBank{s: newStore("sound", func(b *pcm.Buffer) int { return b.Bytes() }, log)}
}

// Register stores buf and returns its id.
func (b *SoundBank) Register(buf *pcm.Buffer) (uint32, error) {
	if buf == nil || buf.Frames() == 0 {
		return 0, ErrEmptySound
	}
	return b.s.add(buf)
}

// LoadMemory decodes a WAV or MP3 image and registers it.
func (b *SoundBank) LoadMemory(data []byte) (uint32, error) {
	buf, err := pcm.Decode(data)
	if err != nil {
		return 0, fmt.Errorf("load sound: %w", err)
	}
	return b.Register(buf)
}

// LoadFile reads and registers a WAV or MP3 file.
func (b *SoundBank) LoadFile(path string) (uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return b.LoadMemory(data)
}

// Get returns the buffer for id.
func (b *SoundBank) Get(id uint32) (*pcm.Buffer, error) { return b.s.get(id) }

// Exists reports whether id is live.
func (b *SoundBank) Exists(id uint32) bool { return b.s.exists(id) }

// Free drops id. The id is never reissued.
func (b *SoundBank) Free(id uint32) error { return b.s.free(id) }

// FreeAll drops every sound.
func (b *SoundBank) FreeAll() { b.s.freeAll() }

// Count returns the number of live sounds.
func (b *SoundBank) Count() int { return b.s.count() }

// MemoryUsage is the sample bytes plus a fixed per-entry overhead.
func (b *SoundBank) MemoryUsage() int { return b.s.memoryUsage() }
