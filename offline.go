package voicesynth

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/superterminal/voicesynth/internal/audio"
	"github.com/superterminal/voicesynth/internal/pcm"
	"github.com/superterminal/voicesynth/internal/synth"
	"github.com/superterminal/voicesynth/internal/timeline"
	"github.com/superterminal/voicesynth/internal/vscript"
)

// RenderConfig configures an offline render. Zero fields take defaults:
// 48 kHz, eight voices, 120 BPM.
type RenderConfig struct {
	SampleRate int
	Voices     int
	BPM        float64
	Fast       bool
	Logger     *slog.Logger
}

func (c RenderConfig) options() timeline.Options {
	return timeline.Options{SampleRate: c.SampleRate, Voices: c.Voices, Fast: c.Fast, Logger: c.Logger}
}

// NewTimeline returns an empty timeline at bpm for RenderTimeline.
func NewTimeline(bpm float64) *Timeline { return timeline.New(bpm) }

// CompileScript checks a voice script and returns its disassembly.
func CompileScript(src string) (string, error) {
	prog, err := vscript.Compile(src)
	if err != nil {
		return "", err
	}
	return prog.Disassemble(), nil
}

// RenderScript runs a voice script to completion on a private controller
// and returns the audio, release tail included.
func RenderScript(src string, cfg RenderConfig) (*Buffer, error) {
	prog, err := vscript.Compile(src)
	if err != nil {
		return nil, err
	}
	bpm := cfg.BPM
	if bpm <= 0 {
		bpm = timeline.DefaultBPM
	}
	tl := timeline.New(bpm)
	vscript.NewInterp(prog, tl, bpm).Run(tl)
	return RenderTimeline(tl, cfg)
}

// RenderTimeline renders tl on a private controller.
func RenderTimeline(tl *Timeline, cfg RenderConfig) (*Buffer, error) {
	buf, err := timeline.Render(tl, cfg.options())
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf, nil
}

// WriteWAV writes buf as 16 or 32 bit integer PCM.
func WriteWAV(path string, buf *Buffer, bits int) error {
	return pcm.WriteWAVFile(path, buf, bits)
}

// ParseNoteName converts "C4", "C#4" or "Db4" to a MIDI number.
func ParseNoteName(name string) (int, bool) { return synth.ParseNoteName(name) }

// NoteName formats a MIDI note, 60 as "C4".
func NoteName(midi int) string { return synth.NoteName(midi) }

// HzToNearestNote returns the MIDI note closest to hz, or -1 outside 0..127.
func HzToNearestNote(hz float64) int {
	if hz <= 0 {
		return -1
	}
	midi := int(math.Round(synth.HzToMIDI(hz)))
	if midi < 0 || midi > 127 {
		return -1
	}
	return midi
}

// ParseBackend accepts ebiten or oto, case-insensitively.
func ParseBackend(name string) (Backend, error) { return audio.ParseBackend(name) }
