package synth

import (
	"math"
	"strconv"
	"strings"
)

var noteSemitones = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// ParseNoteName converts names like "C4", "C#4", "Db4" or "A-1" to a MIDI
// note number. C4 is 60. The result must fall in 0..127.
func ParseNoteName(name string) (int, bool) {
	s := strings.TrimSpace(name)
	if len(s) < 2 {
		return 0, false
	}
	semi, ok := noteSemitones[byte(strings.ToUpper(s[:1])[0])]
	if !ok {
		return 0, false
	}
	s = s[1:]
	switch s[0] {
	case '#', 's', 'S':
		semi++
		s = s[1:]
	case 'b':
		semi--
		s = s[1:]
	}
	octave, err := strconv.Atoi(s)
	if err != nil || octave < -1 || octave > 9 {
		return 0, false
	}
	midi := (octave+1)*12 + semi
	if midi < 0 || midi > 127 {
		return 0, false
	}
	return midi, true
}

// MIDIToHz converts a (possibly fractional) MIDI note number to Hz.
func MIDIToHz(midi float64) float64 {
	return 440 * math.Exp2((midi-69)/12)
}

// ClampMIDI limits a note number to 0..127.
func ClampMIDI(midi int) int {
	if midi < 0 {
		return 0
	}
	if midi > 127 {
		return 127
	}
	return midi
}

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName formats a MIDI note with sharps, the inverse of ParseNoteName.
func NoteName(midi int) string {
	midi = ClampMIDI(midi)
	return sharpNames[midi%12] + strconv.Itoa(midi/12-1)
}

// HzToMIDI converts a frequency to a fractional MIDI note number.
func HzToMIDI(hz float64) float64 {
	return 69 + 12*math.Log2(hz/440)
}
