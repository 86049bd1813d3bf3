package timeline

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/superterminal/voicesynth/internal/pcm"
	"github.com/superterminal/voicesynth/internal/synth"
)

const (
	renderChunk = 256
	fastAlign   = 32

	// DefaultMaxTail caps the release tail rendered after the last event.
	DefaultMaxTail = 10.0
	// MaxDuration bounds a single offline render.
	MaxDuration = 3600.0
)

// ErrTooLong is returned when a timeline would render past MaxDuration.
var ErrTooLong = errors.New("timeline too long to render")

// Options configures an offline render. Zero fields take defaults.
type Options struct {
	SampleRate      int
	Voices          int
	MaxDelaySeconds float64
	// Fast aligns event frames up to multiples of 32.
	Fast           bool
	MaxTailSeconds float64
	Logger         *slog.Logger
}

type renderer struct {
	ctrl *synth.Controller
	sr   int
	fast bool
	buf  []float32
	out  []float32
	pos  int
}

func (r *renderer) frameAt(sec float64) int {
	f := int(math.Round(sec * float64(r.sr)))
	if r.fast && f%fastAlign != 0 {
		f += fastAlign - f%fastAlign
	}
	return f
}

func (r *renderer) renderTo(frame int) {
	for r.pos < frame {
		n := min(renderChunk, frame-r.pos)
		r.ctrl.GenerateAudio(r.buf, n)
		r.out = append(r.out, r.buf[:n*2]...)
		r.pos += n
	}
}

// Render plays t through a private controller and returns the stereo PCM,
// including a release tail after the last event.
func Render(t *Timeline, opts Options) (*pcm.Buffer, error) {
	cfg := synth.DefaultConfig()
	if opts.SampleRate > 0 {
		cfg.SampleRate = opts.SampleRate
	}
	if opts.Voices > 0 {
		cfg.Voices = opts.Voices
	}
	if opts.MaxDelaySeconds > 0 {
		cfg.MaxDelaySeconds = opts.MaxDelaySeconds
	}
	cfg.Logger = opts.Logger
	maxTail := opts.MaxTailSeconds
	if maxTail <= 0 {
		maxTail = DefaultMaxTail
	}

	events := t.Events()
	tempo := NewTempoMap(t.BPM(), events)
	endSec := tempo.Seconds(t.EndBeat())
	if endSec+maxTail > MaxDuration {
		return nil, fmt.Errorf("render %.1fs: %w", endSec, ErrTooLong)
	}

	r := &renderer{
		ctrl: synth.New(cfg),
		sr:   cfg.SampleRate,
		fast: opts.Fast,
		buf:  make([]float32, renderChunk*2),
	}
	r.out = make([]float32, 0, int((endSec+1)*float64(r.sr))*2)
	// The controller takes one gate edge per voice per block, so a second
	// edge on the same frame gets one rendered frame to itself.
	edged := make(map[int]bool)
	for _, e := range events {
		f := r.frameAt(tempo.Seconds(e.Beat))
		if f > r.pos {
			clear(edged)
		}
		r.renderTo(f)
		if isGateEdge(e.Cmd.Op) {
			if edged[e.Cmd.Target] {
				r.renderTo(r.pos + 1)
				clear(edged)
			}
			edged[e.Cmd.Target] = true
		}
		r.ctrl.Exec(e.Cmd)
	}
	r.renderTo(r.frameAt(endSec))

	// Apply what the last events queued before asking for the tail.
	r.ctrl.GenerateAudio(r.buf, 0)
	tail := math.Min(r.ctrl.TailSeconds(), maxTail)
	r.renderTo(max(r.pos, int(math.Round((endSec+tail)*float64(r.sr)))))

	if opts.Logger != nil {
		opts.Logger.Debug("timeline rendered", "events", len(events), "frames", r.pos, "tail_s", tail)
	}
	return &pcm.Buffer{SampleRate: r.sr, Channels: 2, Samples: r.out}, nil
}

func isGateEdge(op synth.Op) bool {
	return op == synth.OpGate || op == synth.OpPlayNote
}
