package abc

import (
	"strings"

	"github.com/superterminal/voicesynth/internal/synth"
	"github.com/superterminal/voicesynth/internal/timeline"
)

// Rest marks a Note that is silent.
const Rest = -1

// Note is one melody event. Beats are quarter notes.
type Note struct {
	MIDI  int
	Beats float64
}

// Tune is a parsed single-voice melody.
type Tune struct {
	Header Header
	Notes  []Note
}

var letterSemitone = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

var letterFifths = map[byte]int{'F': -1, 'C': 0, 'G': 1, 'D': 2, 'A': 3, 'E': 4, 'B': 5}

var modeFifths = map[string]int{
	"": 0, "maj": 0, "ion": 0,
	"mix": -1, "dor": -2, "m": -3, "min": -3, "aeo": -3,
	"phr": -4, "loc": -5, "lyd": 1,
}

// keySignature returns the alteration for each natural letter under key.
func keySignature(key string) map[byte]int {
	sig := map[byte]int{}
	k := strings.TrimSpace(key)
	if k == "" || strings.EqualFold(k, "none") {
		return sig
	}
	tonic := k[0] &^ 0x20
	fifths, ok := letterFifths[tonic]
	if !ok {
		return sig
	}
	rest := k[1:]
	switch {
	case strings.HasPrefix(rest, "#"):
		fifths += 7
		rest = rest[1:]
	case strings.HasPrefix(rest, "b"):
		fifths -= 7
		rest = rest[1:]
	}
	mode := strings.ToLower(strings.TrimSpace(rest))
	if f := strings.Fields(mode); len(f) > 0 {
		mode = f[0]
	}
	if len(mode) > 3 {
		mode = mode[:3]
	}
	if off, ok := modeFifths[mode]; ok {
		fifths += off
	}
	const sharps, flats = "FCGDAEB", "BEADGCF"
	for i := 0; i < fifths && i < 7; i++ {
		sig[sharps[i]] = 1
	}
	for i := 0; i < -fifths && i < 7; i++ {
		sig[flats[i]] = -1
	}
	return sig
}

// Parse reads the header and the melody. Chords play their first note,
// grace notes, decorations and chord symbols are skipped, and |: :|
// repeats are expanded once.
func Parse(text string) (*Tune, error) {
	h, body, err := parseHeader(text)
	if err != nil {
		return nil, err
	}
	p := &melody{unit: h.UnitLength * 4, sig: keySignature(h.Key), bar: map[int]int{}}
	for _, line := range body {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		if _, _, ok := splitField(line); ok {
			continue
		}
		if i := strings.IndexByte(line, '%'); i >= 0 {
			line = line[:i]
		}
		p.line(line)
	}
	return &Tune{Header: h, Notes: p.notes}, nil
}

type melody struct {
	unit        float64
	sig         map[byte]int
	bar         map[int]int // accidentals within the bar, by natural pitch
	notes       []Note
	repeatStart int
	tuplet      int
	tupletScale float64
	broken      float64
	tie         bool
}

func (m *melody) line(s string) {
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '"':
			i = skipPast(s, i+1, '"')
		case c == '!' || c == '+':
			i = skipPast(s, i+1, c)
		case c == '{':
			i = skipPast(s, i+1, '}')
		case c == '|' || c == ':' || c == '[' && i+1 < len(s) && (s[i+1] == '|' || isDigit(s[i+1])):
			i = m.barLine(s, i)
		case c == '[':
			// chord: keep the first note, skip to the closing bracket
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return
			}
			chord := s[i+1 : i+end]
			j := 0
			for j < len(chord) && !isNoteStart(chord[j]) {
				j++
			}
			i += end + 1
			if j < len(chord) {
				n, _ := m.note(chord, j)
				n.Beats *= m.length(s, &i)
				m.push(n)
			}
		case c == '(' && i+1 < len(s) && isDigit(s[i+1]):
			m.tuplet = int(s[i+1] - '0')
			switch m.tuplet {
			case 2:
				m.tupletScale = 3.0 / 2
			case 3:
				m.tupletScale = 2.0 / 3
			case 4:
				m.tupletScale = 3.0 / 4
			default:
				m.tupletScale = 2.0 / float64(m.tuplet)
			}
			i += 2
		case c == '>' || c == '<':
			n := 1
			for i+n < len(s) && s[i+n] == c {
				n++
			}
			f := 1.0
			for k := 0; k < n; k++ {
				f /= 2
			}
			if len(m.notes) > 0 {
				prev := &m.notes[len(m.notes)-1]
				if c == '>' {
					prev.Beats *= 2 - f
					m.broken = f
				} else {
					prev.Beats *= f
					m.broken = 2 - f
				}
			}
			i += n
		case c == '-':
			m.tie = true
			i++
		case isNoteStart(c) || c == 'z' || c == 'x':
			n, next := m.note(s, i)
			i = next
			n.Beats *= m.length(s, &i)
			m.push(n)
		default:
			i++
		}
	}
}

func (m *melody) push(n Note) {
	if m.broken != 0 {
		n.Beats *= m.broken
		m.broken = 0
	}
	if m.tuplet > 0 {
		n.Beats *= m.tupletScale
		m.tuplet--
	}
	if m.tie && len(m.notes) > 0 && m.notes[len(m.notes)-1].MIDI == n.MIDI {
		m.notes[len(m.notes)-1].Beats += n.Beats
		m.tie = false
		return
	}
	m.tie = false
	m.notes = append(m.notes, n)
}

func (m *melody) barLine(s string, i int) int {
	start := i
	for i < len(s) && (s[i] == '|' || s[i] == ':' || s[i] == '[' || s[i] == ']' || isDigit(s[i])) {
		i++
	}
	tok := s[start:i]
	clear(m.bar)
	if strings.HasPrefix(tok, ":") {
		body := append([]Note(nil), m.notes[m.repeatStart:]...)
		m.notes = append(m.notes, body...)
		m.repeatStart = len(m.notes)
	}
	if strings.HasSuffix(strings.TrimRight(tok, "0123456789["), ":") || tok == "||" || tok == "|]" {
		m.repeatStart = len(m.notes)
	}
	return i
}

// note reads accidentals, the pitch letter and octave marks at s[i].
func (m *melody) note(s string, i int) (Note, int) {
	acc, explicit := 0, false
	for ; i < len(s) && strings.IndexByte("^_=", s[i]) >= 0; i++ {
		switch s[i] {
		case '^':
			acc++
		case '_':
			acc--
		}
		explicit = true
	}
	if i >= len(s) {
		return Note{MIDI: Rest}, i
	}
	c := s[i]
	i++
	if c == 'z' || c == 'x' {
		return Note{MIDI: Rest, Beats: m.unit}, i
	}
	upper := c &^ 0x20
	semi, ok := letterSemitone[upper]
	if !ok {
		return Note{MIDI: Rest}, i
	}
	midi := 60 + semi
	if c >= 'a' && c <= 'z' {
		midi += 12
	}
	for i < len(s) && (s[i] == '\'' || s[i] == ',') {
		if s[i] == '\'' {
			midi += 12
		} else {
			midi -= 12
		}
		i++
	}
	switch {
	case explicit:
		m.bar[midi] = acc
	default:
		if a, ok := m.bar[midi]; ok {
			acc = a
		} else {
			acc = m.sig[upper]
		}
	}
	return Note{MIDI: synth.ClampMIDI(midi + acc), Beats: m.unit}, i
}

// length reads a multiplier such as 2, /2, / or 3/2 at s[*i].
func (m *melody) length(s string, i *int) float64 {
	num, den := 0, 0
	for *i < len(s) && isDigit(s[*i]) {
		num = num*10 + int(s[*i]-'0')
		*i++
	}
	if num == 0 {
		num = 1
	}
	slashes := 0
	for *i < len(s) && s[*i] == '/' {
		slashes++
		*i++
		for *i < len(s) && isDigit(s[*i]) {
			den = den*10 + int(s[*i]-'0')
			*i++
		}
	}
	switch {
	case slashes == 0:
		return float64(num)
	case den > 0:
		return float64(num) / float64(den)
	default:
		return float64(num) / float64(int(1)<<slashes)
	}
}

func skipPast(s string, i int, c byte) int {
	if j := strings.IndexByte(s[i:], c); j >= 0 {
		return i + j + 1
	}
	return len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNoteStart(c byte) bool {
	switch c {
	case '^', '_', '=':
		return true
	}
	u := c &^ 0x20
	return u >= 'A' && u <= 'G'
}

// Beats is the melody length in quarter notes.
func (t *Tune) Beats() float64 {
	total := 0.0
	for _, n := range t.Notes {
		total += n.Beats
	}
	return total
}

// Legato is the fraction of each note's length the gate stays open.
const Legato = 0.9

// Schedule writes the melody onto tl for voice, starting at the cursor,
// then advances the cursor past it. The tune's tempo is recorded first.
func (t *Tune) Schedule(tl *timeline.Timeline, voice int) {
	tl.SetTempo(t.Header.Tempo)
	at := tl.Cursor()
	for _, n := range t.Notes {
		if n.MIDI != Rest && n.Beats > 0 {
			tl.Add(at, synth.Cmd(synth.OpNote, voice, float64(n.MIDI)))
			tl.Add(at, synth.Cmd(synth.OpGate, voice, 1))
			tl.Add(at+n.Beats*Legato, synth.Cmd(synth.OpGate, voice, 0))
		}
		at += n.Beats
	}
	tl.Advance(at - tl.Cursor())
}
