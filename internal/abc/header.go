// Package abc reads tunes in ABC notation: the header fields and a
// single-voice melody that can be scheduled onto a timeline.
package abc

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNoHeader is returned when text carries none of the X:, T: or K: fields.
var ErrNoHeader = errors.New("abc: no tune header")

// DefaultTempo is the quarter-note tempo used without a Q: field.
const DefaultTempo = 120

// Header is the metadata of one tune.
type Header struct {
	Index      int
	Title      string
	Composer   string
	Key        string
	Meter      string
	UnitLength float64 // fraction of a whole note
	Tempo      float64 // quarter notes per minute
}

// ParseHeader reads the header fields up to and including K:.
func ParseHeader(text string) (Header, error) {
	h, _, err := parseHeader(text)
	return h, err
}

// parseHeader also returns the body lines after K:.
func parseHeader(text string) (Header, []string, error) {
	h := Header{Tempo: DefaultTempo}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	seen := false
	unitSet := false
	body := -1
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		field, value, ok := splitField(line)
		if !ok {
			if seen {
				body = i
				break
			}
			continue
		}
		switch field {
		case 'X':
			h.Index, _ = strconv.Atoi(value)
			seen = true
		case 'T':
			if h.Title == "" {
				h.Title = value
			}
			seen = true
		case 'C':
			h.Composer = value
		case 'M':
			h.Meter = value
		case 'L':
			if v, ok := parseFraction(value); ok && v > 0 {
				h.UnitLength = v
				unitSet = true
			}
		case 'Q':
			if v, ok := parseTempo(value); ok {
				h.Tempo = v
			}
		case 'K':
			h.Key = value
			seen = true
			body = i + 1
		}
		if field == 'K' {
			break
		}
	}
	if !seen {
		return Header{}, nil, ErrNoHeader
	}
	if !unitSet {
		h.UnitLength = defaultUnit(h.Meter)
	}
	if body < 0 || body > len(lines) {
		return h, nil, nil
	}
	return h, lines[body:], nil
}

// splitField recognises "X:value" lines.
func splitField(line string) (byte, string, bool) {
	if len(line) < 2 || line[1] != ':' {
		return 0, "", false
	}
	c := line[0]
	if c < 'A' || c > 'Z' {
		return 0, "", false
	}
	v := strings.TrimSpace(line[2:])
	if i := strings.IndexByte(v, '%'); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return c, v, true
}

func parseFraction(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, false
	}
	if !ok {
		return n, true
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

// parseTempo accepts "1/4=120", "3/8=40", "120" and quoted labels.
func parseTempo(s string) (float64, bool) {
	if i := strings.LastIndexByte(s, '"'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	beat, bpm, ok := strings.Cut(s, "=")
	if !ok {
		v, err := strconv.ParseFloat(s, 64)
		return v, err == nil && v > 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(bpm), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	total := 0.0
	for _, part := range strings.Fields(beat) {
		f, ok := parseFraction(part)
		if !ok {
			return 0, false
		}
		total += f
	}
	if total <= 0 {
		return 0, false
	}
	return v * total * 4, true
}

func defaultUnit(meter string) float64 {
	switch strings.TrimSpace(meter) {
	case "C", "C|", "":
		return 1.0 / 8
	}
	if m, ok := parseFraction(meter); ok && m < 0.75 {
		return 1.0 / 16
	}
	return 1.0 / 8
}
