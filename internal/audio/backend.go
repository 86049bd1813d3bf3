package audio

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownBackend is returned by ParseBackend and Open for unsupported names.
var ErrUnknownBackend = errors.New("audio: unknown backend")

// Backend names a live output driver.
type Backend string

const (
	BackendEbiten Backend = "ebiten"
	BackendOto    Backend = "oto"
)

// ParseBackend accepts a case-insensitive backend name. Empty means ebiten.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendEbiten, nil
	case BackendEbiten, BackendOto:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// Output is a started or paused live stream.
type Output interface {
	Play()
	Pause()
	IsPlaying() bool
	Close() error
}

// Open creates a paused output of the given backend pulling from source.
// Both drivers allow one device context per process, fixed to the first
// sample rate requested.
func Open(b Backend, sampleRate int, source SampleSource) (Output, error) {
	switch b {
	case BackendEbiten, "":
		return newEbitenPlayer(sampleRate, source)
	case BackendOto:
		return newOtoPlayer(sampleRate, source)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, string(b))
	}
}
