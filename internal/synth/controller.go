// Package synth implements the voice controller: it owns the voices, the
// LFO bank, the global filter and the per-voice delay lines, validates
// parameter changes against the operation table and renders stereo frames.
package synth

import (
	"log/slog"
	"math"
	"sync"

	"github.com/superterminal/voicesynth/internal/effects"
	"github.com/superterminal/voicesynth/internal/lfo"
	"github.com/superterminal/voicesynth/internal/osc"
	"github.com/superterminal/voicesynth/internal/physical"
	"github.com/superterminal/voicesynth/internal/voice"
)

const (
	gateQueueSize = 16
	// filterModInterval is how often, in samples, LFO-driven cutoff changes
	// recompute the filter coefficients.
	filterModInterval = 32
)

type gateEdge struct {
	on      bool
	autoOff float64 // seconds; > 0 schedules a release
	timed   bool
}

type gateQueue struct {
	edges [gateQueueSize]gateEdge
	head  int
	n     int
}

func (q *gateQueue) push(e gateEdge) {
	if q.n == gateQueueSize {
		// Full: collapse onto the newest slot so the final state still wins.
		q.edges[(q.head+q.n-1)%gateQueueSize] = e
		return
	}
	q.edges[(q.head+q.n)%gateQueueSize] = e
	q.n++
}

func (q *gateQueue) pop() (gateEdge, bool) {
	if q.n == 0 {
		return gateEdge{}, false
	}
	e := q.edges[q.head]
	q.head = (q.head + 1) % gateQueueSize
	q.n--
	return e, true
}

type filterParams struct {
	Type      effects.FilterType
	Cutoff    float64
	Resonance float64
	Enabled   bool
}

// controlState is everything setters write. It is guarded by Controller.mu.
type controlState struct {
	voices   []voice.Params
	freq     []float64
	freqSeq  []uint32
	trigSeq  []uint32
	gate     []bool
	gates    []gateQueue
	filter   filterParams
	lfos     [lfo.Count]lfo.Params
	lfoReset [lfo.Count]uint32
	resetSeq uint32
}

// snapshot is the audio path's per-block copy of controlState. Its slices
// are allocated once so taking a snapshot never allocates.
type snapshot struct {
	voices   []voice.Params
	freq     []float64
	freqSeq  []uint32
	trigSeq  []uint32
	edges    []gateEdge
	hasEdge  []bool
	filter   filterParams
	lfos     [lfo.Count]lfo.Params
	lfoReset [lfo.Count]uint32
	resetSeq uint32
}

// audioState is owned by whichever goroutine holds Controller.renderMu.
type audioState struct {
	voices   []*voice.Voice
	lfos     *lfo.Bank
	filter   *effects.Biquad
	prev     voice.Frame
	next     voice.Frame
	freqSeq  []uint32
	trigSeq  []uint32
	lfoReset [lfo.Count]uint32
	resetSeq uint32
	snap     snapshot
}

// Controller is the voice controller. Setters may be called from any
// goroutine; GenerateAudio is called by the audio goroutine.
type Controller struct {
	mu       sync.Mutex // guards ctl, recorder
	renderMu sync.Mutex // guards audio, capture, cfg.SampleRate
	cfg      Config
	log      *slog.Logger
	ctl      controlState
	recorder Recorder
	audio    audioState

	capturing   bool
	capture     []float32
	capturePath string
}

// New builds a controller. Zero fields in cfg take their defaults.
func New(cfg Config) *Controller {
	cfg = cfg.normalized()
	n := cfg.Voices
	c := &Controller{cfg: cfg, log: cfg.Logger}
	c.ctl = controlState{
		voices:  make([]voice.Params, n),
		freq:    make([]float64, n),
		freqSeq: make([]uint32, n),
		trigSeq: make([]uint32, n),
		gate:    make([]bool, n),
		gates:   make([]gateQueue, n),
		filter:  filterParams{Type: effects.FilterLowPass, Cutoff: 1000, Resonance: 0.707},
		lfos:    lfo.DefaultParams(),
	}
	for i := range c.ctl.voices {
		c.ctl.voices[i] = voice.DefaultParams()
		c.ctl.freq[i] = voice.DefaultFrequency
	}
	c.audio.snap = snapshot{
		voices:  make([]voice.Params, n),
		freq:    make([]float64, n),
		freqSeq: make([]uint32, n),
		trigSeq: make([]uint32, n),
		edges:   make([]gateEdge, n),
		hasEdge: make([]bool, n),
	}
	c.audio.freqSeq = make([]uint32, n)
	c.audio.trigSeq = make([]uint32, n)
	c.buildAudio(cfg.SampleRate)
	return c
}

// buildAudio (re)allocates every sample-rate dependent buffer.
func (c *Controller) buildAudio(sampleRate int) {
	a := &c.audio
	n := c.cfg.Voices
	a.voices = make([]*voice.Voice, n)
	for i := range a.voices {
		a.voices[i] = voice.New(i+1, sampleRate, c.cfg.MaxDelaySeconds)
	}
	if a.lfos == nil {
		a.lfos = lfo.NewBank()
	}
	a.filter = effects.NewBiquad(sampleRate)
	a.prev = voice.NewFrame(n)
	a.next = voice.NewFrame(n)
	clear(a.freqSeq)
	clear(a.trigSeq)
}

// Voices returns the number of voices.
func (c *Controller) Voices() int { return c.cfg.Voices }

// SampleRate returns the current output rate.
func (c *Controller) SampleRate() int {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	return c.cfg.SampleRate
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	return c.cfg
}

// SetRecorder attaches r to receive every accepted command; nil detaches.
func (c *Controller) SetRecorder(r Recorder) {
	c.mu.Lock()
	c.recorder = r
	c.mu.Unlock()
}

// Exec validates cmd against the operation table, records it and applies it.
// Out-of-domain arguments are clamped or, for rejecting domains and bad
// indices, the command is dropped.
func (c *Controller) Exec(cmd Command) {
	spec, ok := Spec(cmd.Op)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.normalize(spec, &cmd) {
		return
	}
	if c.recorder != nil {
		c.recorder.Record(cmd)
	}
	c.apply(cmd)
}

func (c *Controller) normalize(spec *OpSpec, cmd *Command) bool {
	switch spec.Scope {
	case ScopeVoice:
		if cmd.Target < 1 || cmd.Target > c.cfg.Voices {
			return false
		}
	case ScopeLFO:
		if !lfo.Valid(cmd.Target) {
			return false
		}
	default:
		cmd.Target = 0
	}
	if cmd.Op == OpNoteName {
		midi, ok := ParseNoteName(cmd.Text)
		if !ok {
			return false
		}
		*cmd = Command{Op: OpNote, Target: cmd.Target, Args: [4]float64{float64(midi)}}
		return true
	}
	for i, a := range spec.Args {
		v := cmd.Args[i]
		if math.IsNaN(v) {
			return false
		}
		switch a.Kind {
		case ArgBool:
			v = boolArg(v != 0)
		case ArgWaveform:
			if w := osc.Waveform(v); float64(w) != v || !w.Valid() {
				v = float64(osc.Silence)
			}
		case ArgModel:
			if m := physical.Model(v); float64(m) != v || m < physical.Plucked || m > physical.Glass {
				return false
			}
		case ArgFilterType:
			if f := effects.FilterType(v); float64(f) != v || f < effects.FilterOff || f > effects.FilterBandPass {
				return false
			}
		case ArgLFOWave:
			if w := lfo.Waveform(v); float64(w) != v || w < lfo.WaveSine || w > lfo.WaveSampleHold {
				return false
			}
		case ArgVoice:
			v = math.Round(v)
			if v < 0 || v > float64(c.cfg.Voices) {
				return false
			}
			if int(v) == cmd.Target {
				v = 0
			}
		case ArgLFO:
			v = math.Round(v)
			if v < 0 || v > lfo.Count {
				return false
			}
		case ArgNote:
			if cmd.Text != "" {
				midi, ok := ParseNoteName(cmd.Text)
				if !ok {
					return false
				}
				v = float64(midi)
				cmd.Text = ""
			}
			v = math.Max(a.Domain.Min, math.Min(a.Domain.Max, v))
		case ArgString:
		default:
			if v < a.Domain.Min || v > a.Domain.Max {
				if a.Domain.Reject {
					return false
				}
				v = math.Max(a.Domain.Min, math.Min(a.Domain.Max, v))
			}
		}
		cmd.Args[i] = v
	}
	if cmd.Op == OpDelayTime && cmd.Args[0] > c.cfg.MaxDelaySeconds {
		cmd.Args[0] = c.cfg.MaxDelaySeconds
	}
	return true
}

// apply mutates the control state. c.mu must be held.
func (c *Controller) apply(cmd Command) {
	a := cmd.Args
	i := cmd.Target - 1
	var p *voice.Params
	if cmd.Target >= 1 && cmd.Target <= len(c.ctl.voices) {
		p = &c.ctl.voices[i]
	}
	switch cmd.Op {
	case OpWaveform:
		p.Waveform = osc.Waveform(a[0])
	case OpWaveform2:
		p.Waveform2 = osc.Waveform(a[0])
		p.Combine = a[1] != 0
	case OpFrequency:
		c.setTarget(i, a[0])
	case OpNote:
		c.setTarget(i, MIDIToHz(a[0]))
	case OpEnvelope:
		p.AttackMs, p.DecayMs, p.Sustain, p.ReleaseMs = a[0], a[1], a[2], a[3]
	case OpGate:
		on := a[0] != 0
		if c.ctl.gate[i] == on {
			return
		}
		c.ctl.gate[i] = on
		c.ctl.gates[i].push(gateEdge{on: on})
	case OpVolume:
		p.Volume = a[0]
	case OpPan:
		p.Pan = a[0]
	case OpPulseWidth:
		p.PulseWidth = a[0]
	case OpDetune:
		p.Detune = a[0]
	case OpPortamento:
		p.Portamento = a[0]
	case OpRingMod:
		p.RingMod = int(a[0])
	case OpSync:
		p.Sync = int(a[0])
	case OpTestBit:
		p.TestBit = a[0] != 0
	case OpDelayEnable:
		p.DelayEnabled = a[0] != 0
	case OpDelayTime:
		p.DelayTime = a[0]
	case OpDelayFeedback:
		p.DelayFeedback = a[0]
	case OpDelayMix:
		p.DelayMix = a[0]
	case OpFilterRoute:
		p.FilterRoute = a[0] != 0
	case OpLFOPitch:
		p.LFOPitch = voice.Route{LFO: int(a[0]), Depth: a[1]}
	case OpLFOVolume:
		p.LFOVolume = voice.Route{LFO: int(a[0]), Depth: a[1]}
	case OpLFOFilter:
		p.LFOFilter = voice.Route{LFO: int(a[0]), Depth: a[1]}
	case OpLFOPulse:
		p.LFOPulse = voice.Route{LFO: int(a[0]), Depth: a[1]}
	case OpPhysicalModel:
		p.Physical.Model = physical.Model(a[0])
	case OpDamping:
		p.Physical.Damping = a[0]
	case OpBrightness:
		p.Physical.Brightness = a[0]
	case OpExcitation:
		p.Physical.Excitation = a[0]
	case OpResonance:
		p.Physical.Resonance = a[0]
	case OpTension:
		p.Physical.Tension = a[0]
	case OpPressure:
		p.Physical.Pressure = a[0]
	case OpTrigger:
		c.ctl.trigSeq[i]++
	case OpPlayNote:
		c.setTarget(i, MIDIToHz(a[0]))
		// The countdown closes the gate, so the logical gate stays off and
		// a later setGate(true) produces a fresh edge.
		c.ctl.gate[i] = false
		c.ctl.gates[i].push(gateEdge{on: true, autoOff: a[1], timed: true})
	case OpFilterType:
		c.ctl.filter.Type = effects.FilterType(a[0])
	case OpFilterCutoff:
		c.ctl.filter.Cutoff = a[0]
	case OpFilterResonance:
		c.ctl.filter.Resonance = a[0]
	case OpFilterEnabled:
		c.ctl.filter.Enabled = a[0] != 0
	case OpLFOWaveform:
		c.ctl.lfos[i].Waveform = lfo.Waveform(a[0])
	case OpLFORate:
		c.ctl.lfos[i].RateHz = a[0]
	case OpLFOEnabled:
		c.ctl.lfos[i].Enabled = a[0] != 0
	case OpLFOReset:
		c.ctl.lfoReset[i]++
	case OpResetAll:
		for v := range c.ctl.gate {
			c.ctl.gate[v] = false
			c.ctl.gates[v] = gateQueue{}
		}
		c.ctl.resetSeq++
	case OpTempo:
		// Tempo is a timeline marker; the synth has no notion of beats.
	}
}

func (c *Controller) setTarget(i int, hz float64) {
	c.ctl.freq[i] = hz
	c.ctl.freqSeq[i]++
}

// takeSnapshot copies control state into the audio path. At most one gate
// edge per voice is consumed per block.
func (c *Controller) takeSnapshot() {
	s := &c.audio.snap
	c.mu.Lock()
	copy(s.voices, c.ctl.voices)
	copy(s.freq, c.ctl.freq)
	copy(s.freqSeq, c.ctl.freqSeq)
	copy(s.trigSeq, c.ctl.trigSeq)
	for i := range c.ctl.gates {
		s.edges[i], s.hasEdge[i] = c.ctl.gates[i].pop()
	}
	s.filter = c.ctl.filter
	s.lfos = c.ctl.lfos
	s.lfoReset = c.ctl.lfoReset
	s.resetSeq = c.ctl.resetSeq
	c.mu.Unlock()
}

// applySnapshot pushes the snapshot into the runtime voices.
func (c *Controller) applySnapshot() {
	a := &c.audio
	s := &a.snap
	if s.resetSeq != a.resetSeq {
		a.resetSeq = s.resetSeq
		for _, v := range a.voices {
			v.Reset()
		}
		a.filter.Reset()
	}
	a.lfos.Apply(s.lfos)
	for i := range s.lfoReset {
		if s.lfoReset[i] != a.lfoReset[i] {
			a.lfoReset[i] = s.lfoReset[i]
			a.lfos.ResetPhase(i + 1)
		}
	}
	for i, v := range a.voices {
		v.Apply(s.voices[i])
		if s.freqSeq[i] != a.freqSeq[i] {
			a.freqSeq[i] = s.freqSeq[i]
			v.SetTarget(s.freq[i])
		}
		if s.hasEdge[i] {
			e := s.edges[i]
			switch {
			case e.on && e.timed:
				v.GateFor(e.autoOff)
			case e.on:
				v.GateOn()
			default:
				v.GateOff()
			}
		}
		if s.trigSeq[i] != a.trigSeq[i] {
			a.trigSeq[i] = s.trigSeq[i]
			v.Trigger()
		}
	}
	if s.filter.Enabled {
		a.filter.Set(s.filter.Type, s.filter.Cutoff, s.filter.Resonance)
	}
}

// GenerateAudio writes frames stereo frames of interleaved float samples in
// [-1,1] into buf. frames is limited to len(buf)/2. The controller lock is
// held only while the parameter snapshot is taken.
func (c *Controller) GenerateAudio(buf []float32, frames int) {
	if frames > len(buf)/2 {
		frames = len(buf) / 2
	}
	if frames < 0 {
		frames = 0
	}
	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	c.takeSnapshot()
	c.applySnapshot()

	a := &c.audio
	s := &a.snap
	dt := 1 / float64(c.cfg.SampleRate)
	filterOn := s.filter.Enabled && s.filter.Type != effects.FilterOff
	lastMod := 0.0
	for f := 0; f < frames; f++ {
		a.lfos.Step(dt)
		var dryL, dryR, wetL, wetR float32
		mod := 0.0
		for _, v := range a.voices {
			l, r := v.Step(dt, a.lfos, &a.prev)
			v.Publish(&a.next)
			if filterOn && v.FilterRouted() {
				wetL += l
				wetR += r
				mod += v.FilterOffset()
			} else {
				dryL += l
				dryR += r
			}
		}
		if filterOn {
			if f%filterModInterval == 0 && mod != lastMod {
				a.filter.Set(s.filter.Type, s.filter.Cutoff+mod, s.filter.Resonance)
				lastMod = mod
			}
			wetL, wetR = a.filter.Process(wetL, wetR)
		}
		buf[f*2] = clip(dryL + wetL)
		buf[f*2+1] = clip(dryR + wetR)
		a.prev, a.next = a.next, a.prev
	}
	if c.capturing {
		c.capture = append(c.capture, buf[:frames*2]...)
	}
}

func clip(s float32) float32 {
	if s != s {
		return 0
	}
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

// SetSampleRate reallocates every rate-dependent buffer. It blocks the
// audio path for the duration. Voices keep their parameters and pitch but
// lose envelope, delay and model state.
func (c *Controller) SetSampleRate(sampleRate int) {
	if sampleRate <= 0 {
		return
	}
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	if sampleRate == c.cfg.SampleRate {
		return
	}
	c.cfg.SampleRate = sampleRate
	c.buildAudio(sampleRate)
	c.log.Info("sample rate changed", "sample_rate", sampleRate)
}

// VoiceState reports the runtime state of voice v (1-based).
func (c *Controller) VoiceState(v int) (voice.State, bool) {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	if v < 1 || v > len(c.audio.voices) {
		return voice.State{}, false
	}
	return c.audio.voices[v-1].Snapshot(), true
}

// VoiceParams returns the control-side parameters of voice v.
func (c *Controller) VoiceParams(v int) (voice.Params, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v < 1 || v > len(c.ctl.voices) {
		return voice.Params{}, false
	}
	return c.ctl.voices[v-1], true
}

// ActiveVoices counts voices whose envelope is sounding.
func (c *Controller) ActiveVoices() int {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	n := 0
	for _, v := range c.audio.voices {
		if v.Active() {
			n++
		}
	}
	return n
}

// TailSeconds is the longest time any voice keeps sounding without input:
// release, delay echoes and pending timed gates.
func (c *Controller) TailSeconds() float64 {
	c.mu.Lock()
	pending := 0.0
	for i := range c.ctl.gates {
		q := &c.ctl.gates[i]
		for k := 0; k < q.n; k++ {
			if e := q.edges[(q.head+k)%gateQueueSize]; e.timed {
				pending = math.Max(pending, e.autoOff+c.ctl.voices[i].ReleaseMs/1000)
			}
		}
	}
	c.mu.Unlock()

	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	tail := pending
	for _, v := range c.audio.voices {
		tail = math.Max(tail, v.TailSeconds())
	}
	return tail
}
