package bank

import (
	"log/slog"
	"os"

	"github.com/superterminal/voicesynth/internal/abc"
)

// Music is a registered score and the metadata read from its header.
type Music struct {
	Text string
	Info abc.Header
	// Parsed is false when the header could not be read; Info is then zero.
	Parsed bool
}

// MusicBank maps ids to ABC scores.
type MusicBank struct {
	s *store[Music]
}

// NewMusicBank returns an empty bank. log may be nil.
func NewMusicBank(log *slog.Logger) *MusicBank {
	return &MusicBank{s: newStore("music", func(m Music) int { return len(m.Text) }, log)}
}

// Register stores text. A header that fails to parse still registers.
func (b *MusicBank) Register(text string) (uint32, error) {
	m := Music{Text: text}
	if h, err := abc.ParseHeader(text); err == nil {
		m.Info, m.Parsed = h, true
	}
	return b.s.add(m)
}

// LoadFile reads and registers a score file.
func (b *MusicBank) LoadFile(path string) (uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return b.Register(string(data))
}

// Get returns the score for id.
func (b *MusicBank) Get(id uint32) (Music, error) { return b.s.get(id) }

// Info returns the header metadata for id.
func (b *MusicBank) Info(id uint32) (abc.Header, error) {
	m, err := b.s.get(id)
	return m.Info, err
}

// Exists reports whether id is live.
func (b *MusicBank) Exists(id uint32) bool { return b.s.exists(id) }

// Free drops id.
func (b *MusicBank) Free(id uint32) error { return b.s.free(id) }

// FreeAll drops every score.
func (b *MusicBank) FreeAll() { b.s.freeAll() }

// Count returns the number of live scores.
func (b *MusicBank) Count() int { return b.s.count() }

// MemoryUsage is the text bytes plus a fixed per-entry overhead.
func (b *MusicBank) MemoryUsage() int { return b.s.memoryUsage() }
