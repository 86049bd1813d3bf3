package synth

import (
	"errors"
	"log/slog"
)

// ErrRenderMode is returned when render mode is disabled without being enabled.
var ErrRenderMode = errors.New("synth: render mode not active")

// Config sizes a controller.
type Config struct {
	SampleRate      int
	Voices          int
	MaxDelaySeconds float64
	BlockSize       int // frames per GenerateAudio call used by offline renderers
	WAVBits         int // bit depth for render-mode WAV output
	Logger          *slog.Logger
}

// DefaultConfig returns 48 kHz, eight voices, two seconds of delay.
func DefaultConfig() Config {
	return Config{
		SampleRate:      48000,
		Voices:          8,
		MaxDelaySeconds: MaxDelaySeconds,
		BlockSize:       512,
		WAVBits:         16,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.SampleRate <= 0 {
		c.SampleRate = d.SampleRate
	}
	if c.Voices <= 0 {
		c.Voices = d.Voices
	}
	if c.MaxDelaySeconds <= 0 {
		c.MaxDelaySeconds = d.MaxDelaySeconds
	}
	if c.BlockSize <= 0 {
		c.BlockSize = d.BlockSize
	}
	if c.WAVBits != 32 {
		c.WAVBits = 16
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}
