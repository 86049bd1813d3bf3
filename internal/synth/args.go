package synth

import (
	"strings"

	"github.com/superterminal/voicesynth/internal/effects"
	"github.com/superterminal/voicesynth/internal/lfo"
	"github.com/superterminal/voicesynth/internal/osc"
	"github.com/superterminal/voicesynth/internal/physical"
)

// ParseArg reads a symbolic argument of the given kind: ON/OFF style
// booleans, enumeration names and note names. Numeric and string kinds
// have no symbolic form and always fail.
func ParseArg(kind ArgKind, name string) (float64, bool) {
	switch kind {
	case ArgBool:
		switch strings.ToUpper(name) {
		case "ON", "TRUE", "YES":
			return 1, true
		case "OFF", "FALSE", "NO":
			return 0, true
		}
	case ArgWaveform:
		w, ok := osc.ParseWaveform(name)
		return float64(w), ok
	case ArgModel:
		m, ok := physical.ParseModel(name)
		return float64(m), ok
	case ArgFilterType:
		f, ok := effects.ParseFilterType(name)
		return float64(f), ok
	case ArgLFOWave:
		w, ok := lfo.ParseWaveform(name)
		return float64(w), ok
	case ArgNote:
		midi, ok := ParseNoteName(name)
		return float64(midi), ok
	}
	return 0, false
}
