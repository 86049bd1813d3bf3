package synth

import "strings"

// Op identifies one controller operation. Every setter, the voice-script
// compiler, the timeline and the Lua bindings are driven from Ops.
type Op uint8

const (
	OpNone Op = iota

	// voice
	OpWaveform
	OpWaveform2
	OpFrequency
	OpNote
	OpNoteName
	OpEnvelope
	OpGate
	OpVolume
	OpPan
	OpPulseWidth
	OpDetune
	OpPortamento
	OpRingMod
	OpSync
	OpTestBit
	OpDelayEnable
	OpDelayTime
	OpDelayFeedback
	OpDelayMix
	OpFilterRoute
	OpLFOPitch
	OpLFOVolume
	OpLFOFilter
	OpLFOPulse
	OpPhysicalModel
	OpDamping
	OpBrightness
	OpExcitation
	OpResonance
	OpTension
	OpPressure
	OpTrigger
	OpPlayNote

	// global filter
	OpFilterType
	OpFilterCutoff
	OpFilterResonance
	OpFilterEnabled

	// LFO bank
	OpLFOWaveform
	OpLFORate
	OpLFOEnabled
	OpLFOReset

	// global
	OpResetAll
	OpTempo

	opCount
)

// Scope says what an op's Target addresses.
type Scope uint8

const (
	ScopeGlobal Scope = iota
	ScopeVoice
	ScopeFilter
	ScopeLFO
)

func (s Scope) String() string {
	switch s {
	case ScopeVoice:
		return "VOICE"
	case ScopeFilter:
		return "FILTER"
	case ScopeLFO:
		return "LFO"
	default:
		return "GLOBAL"
	}
}

// ArgKind tells parsers how to read an argument and the controller how to
// validate it.
type ArgKind uint8

const (
	ArgNumber ArgKind = iota
	ArgBool
	ArgWaveform
	ArgNote
	ArgModel
	ArgFilterType
	ArgLFOWave
	ArgVoice  // 0..voice count, self reference becomes 0
	ArgLFO    // 0..4
	ArgString // note name text, carried in Command.Text
)

// Domain bounds a numeric argument. Out-of-range values are clamped unless
// Reject is set, in which case the whole command is ignored.
type Domain struct {
	Min, Max float64
	Reject   bool
}

// ArgSpec describes one argument.
type ArgSpec struct {
	Name   string
	Kind   ArgKind
	Domain Domain
}

// OpSpec is one row of the declarative operation table.
type OpSpec struct {
	Op      Op
	Scope   Scope
	Keyword string   // voice-script keyword within its scope
	Aliases []string // extra accepted keywords
	Func    string   // flat procedure name exposed to host scripts
	Args    []ArgSpec
}

func num(name string, lo, hi float64) ArgSpec {
	return ArgSpec{Name: name, Kind: ArgNumber, Domain: Domain{Min: lo, Max: hi}}
}

func reject(name string, lo, hi float64) ArgSpec {
	return ArgSpec{Name: name, Kind: ArgNumber, Domain: Domain{Min: lo, Max: hi, Reject: true}}
}

func kind(name string, k ArgKind) ArgSpec {
	return ArgSpec{Name: name, Kind: k}
}

// Parameter limits shared by the table and the controller.
const (
	MaxDetuneCents   = 2400.0
	MaxPortamento    = 10.0
	MaxDelaySeconds  = 2.0
	MaxLFORate       = 100.0
	MaxFrequency     = 20000.0
	MinTempo         = 1.0
	MaxTempo         = 999.0
	MaxNoteDuration  = 60.0
	MaxLFOPitchDepth = 4800.0
	MaxLFOFilterHz   = 20000.0
)

// Ops is the operation table. Order matches the Op constants.
var Ops = [...]OpSpec{
	{Op: OpWaveform, Scope: ScopeVoice, Keyword: "WAVEFORM", Aliases: []string{"WAVE"}, Func: "voice_set_waveform",
		Args: []ArgSpec{kind("waveform", ArgWaveform)}},
	{Op: OpWaveform2, Scope: ScopeVoice, Keyword: "WAVEFORM2", Aliases: []string{"COMBINE"}, Func: "voice_set_waveform2",
		Args: []ArgSpec{kind("waveform", ArgWaveform), kind("combine", ArgBool)}},
	{Op: OpFrequency, Scope: ScopeVoice, Keyword: "FREQUENCY", Aliases: []string{"FREQ"}, Func: "voice_set_frequency",
		Args: []ArgSpec{reject("hz", 1e-3, MaxFrequency)}},
	{Op: OpNote, Scope: ScopeVoice, Keyword: "NOTE", Func: "voice_set_note",
		Args: []ArgSpec{{Name: "midi", Kind: ArgNote, Domain: Domain{Min: 0, Max: 127}}}},
	{Op: OpNoteName, Scope: ScopeVoice, Keyword: "NOTENAME", Func: "voice_set_note_name",
		Args: []ArgSpec{kind("name", ArgString)}},
	{Op: OpEnvelope, Scope: ScopeVoice, Keyword: "ENVELOPE", Aliases: []string{"ADSR", "ENV"}, Func: "voice_set_envelope",
		Args: []ArgSpec{num("attack_ms", 0, 60000), num("decay_ms", 0, 60000), num("sustain", 0, 1), num("release_ms", 0, 60000)}},
	{Op: OpGate, Scope: ScopeVoice, Keyword: "GATE", Func: "voice_set_gate",
		Args: []ArgSpec{kind("on", ArgBool)}},
	{Op: OpVolume, Scope: ScopeVoice, Keyword: "VOLUME", Aliases: []string{"VOL"}, Func: "voice_set_volume",
		Args: []ArgSpec{num("volume", 0, 1)}},
	{Op: OpPan, Scope: ScopeVoice, Keyword: "PAN", Func: "voice_set_pan",
		Args: []ArgSpec{num("pan", -1, 1)}},
	{Op: OpPulseWidth, Scope: ScopeVoice, Keyword: "PULSEWIDTH", Aliases: []string{"PW"}, Func: "voice_set_pulse_width",
		Args: []ArgSpec{num("width", 0, 1)}},
	{Op: OpDetune, Scope: ScopeVoice, Keyword: "DETUNE", Func: "voice_set_detune",
		Args: []ArgSpec{num("cents", -MaxDetuneCents, MaxDetuneCents)}},
	{Op: OpPortamento, Scope: ScopeVoice, Keyword: "PORTAMENTO", Aliases: []string{"GLIDE"}, Func: "voice_set_portamento",
		Args: []ArgSpec{num("seconds", 0, MaxPortamento)}},
	{Op: OpRingMod, Scope: ScopeVoice, Keyword: "RINGMOD", Aliases: []string{"RING"}, Func: "voice_set_ring_mod",
		Args: []ArgSpec{kind("source", ArgVoice)}},
	{Op: OpSync, Scope: ScopeVoice, Keyword: "SYNC", Func: "voice_set_sync",
		Args: []ArgSpec{kind("source", ArgVoice)}},
	{Op: OpTestBit, Scope: ScopeVoice, Keyword: "TESTBIT", Aliases: []string{"TEST"}, Func: "voice_set_test_bit",
		Args: []ArgSpec{kind("on", ArgBool)}},
	{Op: OpDelayEnable, Scope: ScopeVoice, Keyword: "DELAY", Func: "voice_set_delay_enabled",
		Args: []ArgSpec{kind("on", ArgBool)}},
	{Op: OpDelayTime, Scope: ScopeVoice, Keyword: "DELAYTIME", Func: "voice_set_delay_time",
		Args: []ArgSpec{num("seconds", 0, MaxDelaySeconds)}},
	{Op: OpDelayFeedback, Scope: ScopeVoice, Keyword: "DELAYFEEDBACK", Aliases: []string{"FEEDBACK"}, Func: "voice_set_delay_feedback",
		Args: []ArgSpec{num("feedback", 0, 0.95)}},
	{Op: OpDelayMix, Scope: ScopeVoice, Keyword: "DELAYMIX", Aliases: []string{"MIX"}, Func: "voice_set_delay_mix",
		Args: []ArgSpec{num("mix", 0, 1)}},
	{Op: OpFilterRoute, Scope: ScopeVoice, Keyword: "FILTER", Func: "voice_set_filter_route",
		Args: []ArgSpec{kind("on", ArgBool)}},
	{Op: OpLFOPitch, Scope: ScopeVoice, Keyword: "LFOPITCH", Aliases: []string{"VIBRATO"}, Func: "voice_set_lfo_pitch",
		Args: []ArgSpec{kind("lfo", ArgLFO), num("cents", -MaxLFOPitchDepth, MaxLFOPitchDepth)}},
	{Op: OpLFOVolume, Scope: ScopeVoice, Keyword: "LFOVOLUME", Aliases: []string{"TREMOLO"}, Func: "voice_set_lfo_volume",
		Args: []ArgSpec{kind("lfo", ArgLFO), num("depth", -1, 1)}},
	{Op: OpLFOFilter, Scope: ScopeVoice, Keyword: "LFOFILTER", Func: "voice_set_lfo_filter",
		Args: []ArgSpec{kind("lfo", ArgLFO), num("hz", -MaxLFOFilterHz, MaxLFOFilterHz)}},
	{Op: OpLFOPulse, Scope: ScopeVoice, Keyword: "LFOPW", Aliases: []string{"LFOPULSE"}, Func: "voice_set_lfo_pulse_width",
		Args: []ArgSpec{kind("lfo", ArgLFO), num("depth", -1, 1)}},
	{Op: OpPhysicalModel, Scope: ScopeVoice, Keyword: "PHYSICAL", Aliases: []string{"MODEL"}, Func: "voice_set_physical_model",
		Args: []ArgSpec{kind("model", ArgModel)}},
	{Op: OpDamping, Scope: ScopeVoice, Keyword: "DAMPING", Func: "voice_set_damping",
		Args: []ArgSpec{num("amount", 0, 1)}},
	{Op: OpBrightness, Scope: ScopeVoice, Keyword: "BRIGHTNESS", Func: "voice_set_brightness",
		Args: []ArgSpec{num("amount", 0, 1)}},
	{Op: OpExcitation, Scope: ScopeVoice, Keyword: "EXCITATION", Func: "voice_set_excitation",
		Args: []ArgSpec{num("amount", 0, 1)}},
	{Op: OpResonance, Scope: ScopeVoice, Keyword: "RESONANCE", Func: "voice_set_resonance",
		Args: []ArgSpec{num("amount", 0, 1)}},
	{Op: OpTension, Scope: ScopeVoice, Keyword: "TENSION", Func: "voice_set_tension",
		Args: []ArgSpec{num("amount", 0, 1)}},
	{Op: OpPressure, Scope: ScopeVoice, Keyword: "PRESSURE", Func: "voice_set_pressure",
		Args: []ArgSpec{num("amount", 0, 1)}},
	{Op: OpTrigger, Scope: ScopeVoice, Keyword: "TRIGGER", Aliases: []string{"PLUCK", "STRIKE"}, Func: "voice_trigger_physical"},
	{Op: OpPlayNote, Scope: ScopeVoice, Keyword: "PLAY", Func: "voice_play_note",
		Args: []ArgSpec{{Name: "midi", Kind: ArgNote, Domain: Domain{Min: 0, Max: 127}}, num("seconds", 0, MaxNoteDuration)}},

	{Op: OpFilterType, Scope: ScopeFilter, Keyword: "TYPE", Func: "filter_set_type",
		Args: []ArgSpec{kind("type", ArgFilterType)}},
	{Op: OpFilterCutoff, Scope: ScopeFilter, Keyword: "CUTOFF", Func: "filter_set_cutoff",
		Args: []ArgSpec{num("hz", 20, 20000)}},
	{Op: OpFilterResonance, Scope: ScopeFilter, Keyword: "RESONANCE", Aliases: []string{"Q"}, Func: "filter_set_resonance",
		Args: []ArgSpec{num("q", 0.5, 20)}},
	{Op: OpFilterEnabled, Scope: ScopeFilter, Keyword: "ENABLED", Aliases: []string{"ENABLE"}, Func: "filter_set_enabled",
		Args: []ArgSpec{kind("on", ArgBool)}},

	{Op: OpLFOWaveform, Scope: ScopeLFO, Keyword: "WAVEFORM", Aliases: []string{"WAVE"}, Func: "lfo_set_waveform",
		Args: []ArgSpec{kind("waveform", ArgLFOWave)}},
	{Op: OpLFORate, Scope: ScopeLFO, Keyword: "RATE", Func: "lfo_set_rate",
		Args: []ArgSpec{num("hz", 0, MaxLFORate)}},
	{Op: OpLFOEnabled, Scope: ScopeLFO, Keyword: "ENABLED", Aliases: []string{"ENABLE"}, Func: "lfo_set_enabled",
		Args: []ArgSpec{kind("on", ArgBool)}},
	{Op: OpLFOReset, Scope: ScopeLFO, Keyword: "RESET", Func: "lfo_reset"},

	{Op: OpResetAll, Scope: ScopeGlobal, Keyword: "RESET", Func: "voices_reset_all"},
	{Op: OpTempo, Scope: ScopeGlobal, Keyword: "TEMPO", Func: "voices_set_tempo",
		Args: []ArgSpec{num("bpm", MinTempo, MaxTempo)}},
}

var (
	specByOp      [opCount]*OpSpec
	specByKeyword = map[Scope]map[string]*OpSpec{}
	specByFunc    = map[string]*OpSpec{}
)

func init() {
	for i := range Ops {
		s := &Ops[i]
		if specByOp[s.Op] != nil {
			panic("synth: duplicate op " + s.Keyword)
		}
		specByOp[s.Op] = s
		m := specByKeyword[s.Scope]
		if m == nil {
			m = map[string]*OpSpec{}
			specByKeyword[s.Scope] = m
		}
		for _, k := range append([]string{s.Keyword}, s.Aliases...) {
			m[k] = s
		}
		specByFunc[s.Func] = s
	}
	for op := OpNone + 1; op < opCount; op++ {
		if specByOp[op] == nil {
			panic("synth: op missing from table")
		}
	}
}

// Spec returns the table row for op.
func Spec(op Op) (*OpSpec, bool) {
	if op <= OpNone || op >= opCount {
		return nil, false
	}
	return specByOp[op], true
}

// LookupKeyword finds an op by its case-insensitive keyword within scope.
func LookupKeyword(scope Scope, keyword string) (*OpSpec, bool) {
	s, ok := specByKeyword[scope][strings.ToUpper(keyword)]
	return s, ok
}

// LookupFunc finds an op by its flat procedure name.
func LookupFunc(name string) (*OpSpec, bool) {
	s, ok := specByFunc[name]
	return s, ok
}

func (op Op) String() string {
	if s, ok := Spec(op); ok {
		return s.Func
	}
	return "none"
}
