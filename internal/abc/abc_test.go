package abc

import (
	"errors"
	"math"
	"testing"

	"github.com/superterminal/voicesynth/internal/synth"
	"github.com/superterminal/voicesynth/internal/timeline"
)

const cooley = `X:1
T:Cooley's
C:Trad.
M:4/4
L:1/8
Q:1/4=96
K:Emin
|:D2|EBBA B2 EB|
`

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader(cooley)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if h.Index != 1 || h.Title != "Cooley's" || h.Composer != "Trad." || h.Key != "Emin" || h.Meter != "4/4" {
		t.Fatalf("header = %+v", h)
	}
	if h.UnitLength != 0.125 || h.Tempo != 96 {
		t.Fatalf("unit %v tempo %v", h.UnitLength, h.Tempo)
	}
}

func TestParseHeaderTempoForms(t *testing.T) {
	tests := []struct {
		q    string
		want float64
	}{
		{"1/4=120", 120},
		{"3/8=40", 60},
		{"1/2=60", 120},
		{"100", 100},
		{`"Allegro" 1/4=132`, 132},
		{"fast", DefaultTempo},
	}
	for _, tc := range tests {
		t.Run(tc.q, func(t *testing.T) {
			h, err := ParseHeader("X:1\nQ:" + tc.q + "\nK:C\n")
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if math.Abs(h.Tempo-tc.want) > 1e-9 {
				t.Fatalf("tempo = %v, want %v", h.Tempo, tc.want)
			}
		})
	}
}

func TestDefaultUnitFollowsMeter(t *testing.T) {
	h, _ := ParseHeader("X:1\nM:2/4\nK:C\n")
	if h.UnitLength != 1.0/16 {
		t.Fatalf("2/4 unit = %v", h.UnitLength)
	}
	h, _ = ParseHeader("X:1\nM:6/8\nK:C\n")
	if h.UnitLength != 1.0/8 {
		t.Fatalf("6/8 unit = %v", h.UnitLength)
	}
}

func TestParseHeaderMissing(t *testing.T) {
	if _, err := ParseHeader("just some text\nwith no fields"); !errors.Is(err, ErrNoHeader) {
		t.Fatalf("expected ErrNoHeader, got %v", err)
	}
}

func TestKeySignature(t *testing.T) {
	tests := []struct {
		key  string
		want map[byte]int
	}{
		{"C", map[byte]int{}},
		{"G", map[byte]int{'F': 1}},
		{"Emin", map[byte]int{'F': 1}},
		{"D", map[byte]int{'F': 1, 'C': 1}},
		{"F", map[byte]int{'B': -1}},
		{"Bb", map[byte]int{'B': -1, 'E': -1}},
		{"Dm", map[byte]int{'B': -1}},
		{"A dorian", map[byte]int{'F': 1}},
		{"D mixolydian", map[byte]int{'F': 1}},
	}
	for _, tc := range tests {
		got := keySignature(tc.key)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: %v, want %v", tc.key, got, tc.want)
		}
		for k, v := range tc.want {
			if got[k] != v {
				t.Fatalf("%s: %v, want %v", tc.key, got, tc.want)
			}
		}
	}
}

func TestParseMelody(t *testing.T) {
	tune, err := Parse("X:1\nL:1/4\nK:G\nC D/2 E2 z F | ^F =F F c' C, [CEG]2 |\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []Note{
		{60, 1}, {62, 0.5}, {64, 2}, {Rest, 1}, {66, 1},
		{66, 1}, {65, 1}, {65, 1}, {84, 1}, {48, 1}, {60, 2},
	}
	if len(tune.Notes) != len(want) {
		t.Fatalf("notes = %v", tune.Notes)
	}
	for i := range want {
		if tune.Notes[i] != want[i] {
			t.Fatalf("note %d = %+v, want %+v (all %v)", i, tune.Notes[i], want[i], tune.Notes)
		}
	}
}

func TestParseRhythms(t *testing.T) {
	tune, err := Parse("X:1\nL:1/8\nK:C\nA>B c<d (3efg a-a\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	beats := []float64{0.75, 0.25, 0.25, 0.75, 1.0 / 3, 1.0 / 3, 1.0 / 3, 1}
	if len(tune.Notes) != len(beats) {
		t.Fatalf("notes = %v", tune.Notes)
	}
	for i, b := range beats {
		if math.Abs(tune.Notes[i].Beats-b) > 1e-9 {
			t.Fatalf("note %d beats = %v, want %v", i, tune.Notes[i].Beats, b)
		}
	}
}

func TestRepeatsExpand(t *testing.T) {
	tune, err := Parse("X:1\nK:C\nC |: D E :| F\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var got []int
	for _, n := range tune.Notes {
		got = append(got, n.MIDI)
	}
	want := []int{60, 62, 64, 62, 64, 65}
	if len(got) != len(want) {
		t.Fatalf("notes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("notes = %v, want %v", got, want)
		}
	}
}

func TestScheduleOntoTimeline(t *testing.T) {
	tune, err := Parse("X:1\nL:1/4\nQ:1/4=60\nK:C\nC z E2\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tl := timeline.New(120)
	tune.Schedule(tl, 3)
	if tl.Cursor() != 4 {
		t.Fatalf("cursor = %v, want 4", tl.Cursor())
	}
	ev := tl.Events()
	if ev[0].Cmd.Op != synth.OpTempo || ev[0].Cmd.Args[0] != 60 {
		t.Fatalf("first event should be the tempo, got %+v", ev[0])
	}
	var gates []float64
	for _, e := range ev {
		if e.Cmd.Op == synth.OpGate {
			if e.Cmd.Target != 3 {
				t.Fatalf("wrong voice %d", e.Cmd.Target)
			}
			gates = append(gates, e.Beat)
		}
	}
	want := []float64{0, 0.9, 2, 2 + 2*Legato}
	if len(gates) != len(want) {
		t.Fatalf("gate beats = %v", gates)
	}
	for i := range want {
		if math.Abs(gates[i]-want[i]) > 1e-9 {
			t.Fatalf("gate beats = %v, want %v", gates, want)
		}
	}
	if s := tl.TempoMap().Seconds(4); s != 4 {
		t.Fatalf("4 beats at 60 BPM = %v s", s)
	}
}
