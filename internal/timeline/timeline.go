// Package timeline records controller commands against a beat cursor and
// renders them offline through a private controller.
package timeline

import (
	"math"
	"slices"
	"sync"

	"github.com/superterminal/voicesynth/internal/synth"
)

// DefaultBPM is the tempo of a timeline with no tempo events.
const DefaultBPM = 120

// Event is one recorded command at a beat position.
type Event struct {
	Beat float64
	Cmd  synth.Command
}

// Timeline is an append-only list of events plus the recording cursor. It
// implements synth.Recorder, so attaching it to a controller captures every
// accepted command at the current cursor.
type Timeline struct {
	mu     sync.Mutex
	bpm    float64
	cursor float64
	events []Event
}

// New returns an empty timeline starting at bpm. Out-of-range tempos fall
// back to DefaultBPM.
func New(bpm float64) *Timeline {
	if !(bpm >= synth.MinTempo && bpm <= synth.MaxTempo) {
		bpm = DefaultBPM
	}
	return &Timeline{bpm: bpm}
}

// Record appends c at the cursor.
func (t *Timeline) Record(c synth.Command) {
	t.mu.Lock()
	t.events = append(t.events, Event{Beat: t.cursor, Cmd: c})
	t.mu.Unlock()
}

// Exec records c at the cursor, letting a timeline stand in for a
// controller when a script is run offline.
func (t *Timeline) Exec(c synth.Command) { t.Record(c) }

// Add appends c at an explicit beat. Negative or non-finite beats are ignored.
func (t *Timeline) Add(beat float64, c synth.Command) {
	if !(beat >= 0) || math.IsInf(beat, 1) {
		return
	}
	t.mu.Lock()
	t.events = append(t.events, Event{Beat: beat, Cmd: c})
	t.mu.Unlock()
}

// Advance moves the cursor forward. Non-positive values are ignored.
func (t *Timeline) Advance(beats float64) {
	if !(beats > 0) || math.IsInf(beats, 1) {
		return
	}
	t.mu.Lock()
	t.cursor += beats
	t.mu.Unlock()
}

// SetTempo records a tempo change at the cursor.
func (t *Timeline) SetTempo(bpm float64) {
	if !(bpm > 0) {
		return
	}
	bpm = math.Max(synth.MinTempo, math.Min(synth.MaxTempo, bpm))
	t.Record(synth.Cmd(synth.OpTempo, 0, bpm))
}

// Cursor returns the recording position in beats.
func (t *Timeline) Cursor() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor
}

// BPM returns the starting tempo.
func (t *Timeline) BPM() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bpm
}

// Len returns the number of recorded events.
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}

// EndBeat is the later of the cursor and the last event.
func (t *Timeline) EndBeat() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	end := t.cursor
	for _, e := range t.events {
		end = math.Max(end, e.Beat)
	}
	return end
}

// Events returns a copy of the events sorted by beat. Events at the same
// beat keep their insertion order.
func (t *Timeline) Events() []Event {
	t.mu.Lock()
	out := slices.Clone(t.events)
	t.mu.Unlock()
	slices.SortStableFunc(out, func(a, b Event) int {
		switch {
		case a.Beat < b.Beat:
			return -1
		case a.Beat > b.Beat:
			return 1
		}
		return 0
	})
	return out
}

// TempoMap builds the beat-to-seconds mapping from the starting tempo and
// the recorded tempo events.
func (t *Timeline) TempoMap() TempoMap {
	return NewTempoMap(t.BPM(), t.Events())
}
