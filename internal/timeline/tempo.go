package timeline

import (
	"math"

	"github.com/superterminal/voicesynth/internal/synth"
)

type tempoPoint struct {
	beat float64
	bpm  float64
	sec  float64
}

// TempoMap converts beats to seconds piecewise across tempo changes.
type TempoMap struct {
	points []tempoPoint
}

// NewTempoMap builds a map from bpm at beat 0 and the OpTempo events in
// events, which must be sorted by beat.
func NewTempoMap(bpm float64, events []Event) TempoMap {
	m := TempoMap{points: []tempoPoint{{beat: 0, bpm: clampBPM(bpm)}}}
	for _, e := range events {
		if e.Cmd.Op != synth.OpTempo {
			continue
		}
		last := m.points[len(m.points)-1]
		p := tempoPoint{
			beat: e.Beat,
			bpm:  clampBPM(e.Cmd.Args[0]),
			sec:  last.sec + (e.Beat-last.beat)*60/last.bpm,
		}
		if p.beat == last.beat {
			m.points[len(m.points)-1].bpm = p.bpm
			continue
		}
		m.points = append(m.points, p)
	}
	return m
}

func clampBPM(bpm float64) float64 {
	if math.IsNaN(bpm) {
		return DefaultBPM
	}
	return math.Max(synth.MinTempo, math.Min(synth.MaxTempo, bpm))
}

func (m TempoMap) segment(beat float64) tempoPoint {
	p := m.points[0]
	for _, q := range m.points[1:] {
		if q.beat > beat {
			break
		}
		p = q
	}
	return p
}

// Seconds returns the time of beat.
func (m TempoMap) Seconds(beat float64) float64 {
	if len(m.points) == 0 {
		return beat * 60 / DefaultBPM
	}
	p := m.segment(beat)
	return p.sec + (beat-p.beat)*60/p.bpm
}

// BPMAt returns the tempo in effect at beat.
func (m TempoMap) BPMAt(beat float64) float64 {
	if len(m.points) == 0 {
		return DefaultBPM
	}
	return m.segment(beat).bpm
}
