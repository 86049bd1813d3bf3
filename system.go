// Package voicesynth is a polyphonic voice synthesizer for retro-style
// hosts. A System owns the live voice controller, a voice-script player,
// the sound, music and SID banks, a one-shot mixer and the audio backend.
package voicesynth

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"sync/atomic"

	"github.com/superterminal/voicesynth/internal/abc"
	"github.com/superterminal/voicesynth/internal/audio"
	"github.com/superterminal/voicesynth/internal/bank"
	"github.com/superterminal/voicesynth/internal/logging"
	"github.com/superterminal/voicesynth/internal/osc"
	"github.com/superterminal/voicesynth/internal/pcm"
	"github.com/superterminal/voicesynth/internal/scriptplayer"
	"github.com/superterminal/voicesynth/internal/synth"
	"github.com/superterminal/voicesynth/internal/timeline"
)

var (
	ErrSampleRate    = errors.New("sample rate must be 44100, 48000 or 96000")
	ErrNotRecording  = errors.New("timeline recording not active")
	ErrNoSIDRenderer = errors.New("no SID renderer configured")
	ErrClosed        = errors.New("system closed")
	ErrNotFound      = bank.ErrNotFound
)

type (
	Buffer     = pcm.Buffer
	Controller = synth.Controller
	Timeline   = timeline.Timeline
	MusicInfo  = abc.Header
	SIDInfo    = bank.SIDHeader
	Backend    = audio.Backend
)

const (
	BackendEbiten = audio.BackendEbiten
	BackendOto    = audio.BackendOto
)

// SIDRenderer turns a SID file into PCM. The emulation itself lives
// outside this module.
type SIDRenderer interface {
	RenderSID(data []byte, subtune, sampleRate int) (*Buffer, error)
}

// SIDRendererFunc adapts a function to SIDRenderer.
type SIDRendererFunc func(data []byte, subtune, sampleRate int) (*Buffer, error)

func (f SIDRendererFunc) RenderSID(data []byte, subtune, sampleRate int) (*Buffer, error) {
	return f(data, subtune, sampleRate)
}

// BankKind selects a bank for the shared bank queries.
type BankKind int

const (
	SoundBank BankKind = iota
	MusicBank
	SIDBank
)

type Option func(*config)

type config struct {
	sampleRate int
	voices     int
	backend    audio.Backend
	logger     *slog.Logger
	wavBits    int
	fast       bool
	sid        SIDRenderer
	sampleTap  func([]float32)
}

func defaultConfig() config {
	d := synth.DefaultConfig()
	return config{
		sampleRate: d.SampleRate,
		voices:     d.Voices,
		backend:    audio.BackendEbiten,
		wavBits:    d.WAVBits,
	}
}

func WithSampleRate(rate int) Option {
	return func(c *config) { c.sampleRate = rate }
}

func WithVoices(n int) Option {
	return func(c *config) { c.voices = n }
}

func WithBackend(b Backend) Option {
	return func(c *config) { c.backend = b }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithWAVBits selects 16 or 32 bit WAV output.
func WithWAVBits(bits int) Option {
	return func(c *config) { c.wavBits = bits }
}

// WithFastRender aligns offline render events to 32-frame boundaries.
func WithFastRender(enabled bool) Option {
	return func(c *config) { c.fast = enabled }
}

func WithSIDRenderer(r SIDRenderer) Option {
	return func(c *config) { c.sid = r }
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) Option {
	return func(c *config) { c.sampleTap = tap }
}

// System is the synthesizer host. All methods are safe for concurrent use.
type System struct {
	cfg     config
	log     *slog.Logger
	ctrl    *synth.Controller
	scripts *scriptplayer.Player
	mixer   *audio.Mixer
	sounds  *bank.SoundBank
	music   *bank.MusicBank
	sids    *bank.SIDBank
	volume  atomic.Uint64

	mu       sync.Mutex
	out      audio.Output
	rec      *timeline.Timeline
	slots    map[int]uint32
	rendered map[uint32]uint32 // music id to cached sound id
	closed   bool
}

// NewSystem builds a stopped system. Call Start to open the audio device.
func NewSystem(opts ...Option) (*System, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	switch cfg.sampleRate {
	case 44100, 48000, 96000:
	default:
		return nil, fmt.Errorf("%w: %d", ErrSampleRate, cfg.sampleRate)
	}
	if cfg.voices <= 0 {
		return nil, fmt.Errorf("voice count %d must be positive", cfg.voices)
	}
	if cfg.wavBits != 16 && cfg.wavBits != 32 {
		return nil, fmt.Errorf("wav bit depth %d: %w", cfg.wavBits, pcm.ErrUnsupported)
	}
	if _, err := audio.ParseBackend(string(cfg.backend)); err != nil {
		return nil, err
	}
	log := logging.OrDiscard(cfg.logger)
	scfg := synth.DefaultConfig()
	scfg.SampleRate = cfg.sampleRate
	scfg.Voices = cfg.voices
	scfg.WAVBits = cfg.wavBits
	scfg.Logger = log
	ctrl := synth.New(scfg)
	s := &System{
		cfg:      cfg,
		log:      log,
		ctrl:     ctrl,
		scripts:  scriptplayer.New(ctrl, scriptplayer.WithLogger(log)),
		mixer:    audio.NewMixer(cfg.sampleRate),
		sounds:   bank.NewSoundBank(log),
		music:    bank.NewMusicBank(log),
		sids:     bank.NewSIDBank(log),
		slots:    make(map[int]uint32),
		rendered: make(map[uint32]uint32),
	}
	s.volume.Store(math.Float64bits(1))
	return s, nil
}

// Voices returns the live voice controller.
func (s *System) Voices() *Controller { return s.ctrl }

func (s *System) SampleRate() int { return s.cfg.sampleRate }

// Process renders the live mix: voices, then one-shot sounds, then the
// master volume. It is the backend's sample source.
func (s *System) Process(dst []float32) {
	s.ctrl.GenerateAudio(dst, len(dst)/2)
	s.mixer.Process(dst)
	g := float32(math.Float64frombits(s.volume.Load()))
	for i, v := range dst {
		dst[i] = pcm.Clip(v * g)
	}
	if s.cfg.sampleTap != nil {
		s.cfg.sampleTap(dst)
	}
}

// Start opens the configured backend and begins playback. Starting a
// started system resumes it.
func (s *System) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.out == nil {
		out, err := audio.Open(s.cfg.backend, s.cfg.sampleRate, audio.SourceFunc(s.Process))
		if err != nil {
			return fmt.Errorf("open %s backend: %w", s.cfg.backend, err)
		}
		s.out = out
		s.log.Info("audio started", "backend", s.cfg.backend, "rate", s.cfg.sampleRate)
	}
	s.out.Play()
	return nil
}

func (s *System) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out != nil {
		s.out.Pause()
	}
}

// Close stops scripts, one-shot sounds and the backend.
func (s *System) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	out := s.out
	s.out = nil
	s.mu.Unlock()

	s.scripts.Close()
	s.mixer.Stop()
	if out == nil {
		return nil
	}
	s.log.Info("audio stopped", "backend", s.cfg.backend)
	return out.Close()
}

// SetMasterVolume sets runtime volume scalar. 1.0 is default.
func (s *System) SetMasterVolume(volume float64) {
	if volume < 0 || math.IsNaN(volume) {
		volume = 0
	}
	s.volume.Store(math.Float64bits(min(volume, 4)))
}

func (s *System) MasterVolume() float64 {
	return math.Float64frombits(s.volume.Load())
}

// Scripts.

func (s *System) LoadScript(name, src string) error { return s.scripts.Load(name, src) }

func (s *System) LoadScriptFile(name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return s.scripts.Load(name, string(data))
}

func (s *System) PlayScript(name string, bpm float64) error { return s.scripts.Play(name, bpm) }

// StopScript stops the playing script and resets every voice.
func (s *System) StopScript() { s.scripts.Stop() }

func (s *System) SetScriptTempo(bpm float64) { s.scripts.SetTempo(bpm) }

// WaitScript blocks until the current script finishes or is stopped.
func (s *System) WaitScript() { s.scripts.Wait() }

func (s *System) ScriptPlaying() (string, bool) { return s.scripts.Playing() }

// Timeline recording.

// StartRecording attaches a fresh timeline to the controller. Every
// accepted controller command is stamped with the current beat. A
// recording in progress is discarded.
func (s *System) StartRecording() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = timeline.New(timeline.DefaultBPM)
	s.ctrl.SetRecorder(s.rec)
}

func (s *System) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec != nil
}

// VoiceWait advances the recording cursor.
func (s *System) VoiceWait(beats float64) {
	s.mu.Lock()
	rec := s.rec
	s.mu.Unlock()
	if rec != nil {
		rec.Advance(beats)
	}
}

// SetTempo marks a tempo change on the recording.
func (s *System) SetTempo(bpm float64) { s.ctrl.MarkTempo(bpm) }

func (s *System) endRecording() (*Buffer, error) {
	s.mu.Lock()
	rec := s.rec
	s.rec = nil
	if rec != nil {
		s.ctrl.SetRecorder(nil)
	}
	s.mu.Unlock()
	if rec == nil {
		return nil, ErrNotRecording
	}
	return timeline.Render(rec, s.renderOptions())
}

func (s *System) renderOptions() timeline.Options {
	return timeline.Options{
		SampleRate: s.cfg.sampleRate,
		Voices:     s.cfg.voices,
		Fast:       s.cfg.fast,
		Logger:     s.log,
	}
}

// EndAndSaveToSlot renders the recording scaled by volume into the sound
// bank and binds it to slot, freeing whatever the slot held before.
func (s *System) EndAndSaveToSlot(slot int, volume float64) (uint32, error) {
	buf, err := s.endRecording()
	if err != nil {
		return 0, err
	}
	buf.Scale(volume)
	id, err := s.sounds.Register(buf)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	old, had := s.slots[slot]
	s.slots[slot] = id
	s.mu.Unlock()
	if had {
		s.sounds.Free(old)
	}
	return id, nil
}

// Slot returns the sound id bound to slot.
func (s *System) Slot(slot int) (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.slots[slot]
	return id, ok && s.sounds.Exists(id)
}

// EndAndPlay renders the recording and plays it once.
func (s *System) EndAndPlay() error {
	buf, err := s.endRecording()
	if err != nil {
		return err
	}
	s.mixer.Play(buf, 1, 0)
	return nil
}

// EndAndSaveToWAV renders the recording to a WAV file.
func (s *System) EndAndSaveToWAV(path string) error {
	buf, err := s.endRecording()
	if err != nil {
		return err
	}
	return s.writeWAV(path, buf)
}

func (s *System) writeWAV(path string, buf *Buffer) error {
	if err := pcm.WriteWAVFile(path, buf, s.cfg.wavBits); err != nil {
		return err
	}
	s.log.Info("wav written", "path", path, "seconds", buf.Duration(), "bits", s.cfg.wavBits)
	return nil
}

// Sounds.

func (s *System) LoadSoundFile(path string) (uint32, error) { return s.sounds.LoadFile(path) }

func (s *System) LoadSoundMemory(data []byte) (uint32, error) { return s.sounds.LoadMemory(data) }

// RegisterSound stores a rendered buffer. The buffer must not be modified
// afterwards.
func (s *System) RegisterSound(buf *Buffer) (uint32, error) { return s.sounds.Register(buf) }

func (s *System) Sound(id uint32) (*Buffer, error) { return s.sounds.Get(id) }

// PlaySound mixes sound id once over the live output.
func (s *System) PlaySound(id uint32, volume, pan float64) error {
	buf, err := s.sounds.Get(id)
	if err != nil {
		return err
	}
	s.mixer.Play(buf, volume, pan)
	return nil
}

// StopSounds silences every one-shot sound.
func (s *System) StopSounds() { s.mixer.Stop() }

// Music.

func (s *System) LoadMusicString(text string) (uint32, error) { return s.music.Register(text) }

func (s *System) LoadMusicFile(path string) (uint32, error) { return s.music.LoadFile(path) }

func (s *System) MusicInfo(id uint32) (MusicInfo, error) { return s.music.Info(id) }

// PlayMusic renders the score's melody on a private controller the first
// time it is played, caches the result in the sound bank and mixes it.
func (s *System) PlayMusic(id uint32, volume, pan float64) error {
	buf, err := s.renderMusic(id)
	if err != nil {
		return err
	}
	s.mixer.Play(buf, volume, pan)
	return nil
}

func (s *System) renderMusic(id uint32) (*Buffer, error) {
	s.mu.Lock()
	cached, ok := s.rendered[id]
	s.mu.Unlock()
	if ok {
		if buf, err := s.sounds.Get(cached); err == nil {
			return buf, nil
		}
	}
	m, err := s.music.Get(id)
	if err != nil {
		return nil, err
	}
	tune, err := abc.Parse(m.Text)
	if err != nil {
		return nil, fmt.Errorf("music %d: %w", id, err)
	}
	tl := timeline.New(tune.Header.Tempo)
	tl.Record(synth.Cmd(synth.OpWaveform, 1, float64(osc.Triangle)))
	tl.Record(synth.Cmd(synth.OpEnvelope, 1, 5, 80, 0.7, 150))
	tune.Schedule(tl, 1)
	buf, err := timeline.Render(tl, s.renderOptions())
	if err != nil {
		return nil, fmt.Errorf("music %d: %w", id, err)
	}
	sid, err := s.sounds.Register(buf)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.rendered[id] = sid
	s.mu.Unlock()
	return buf, nil
}

// SIDs.

func (s *System) LoadSIDFile(path string) (uint32, error) { return s.sids.LoadFile(path) }

func (s *System) LoadSIDMemory(data []byte) (uint32, error) { return s.sids.Register(data) }

func (s *System) SIDInfo(id uint32) (SIDInfo, error) { return s.sids.Info(id) }

func (s *System) SetSIDSubtune(id uint32, n int) error { return s.sids.SetSubtune(id, n) }

// PlaySID renders the selected subtune with the configured SIDRenderer.
func (s *System) PlaySID(id uint32, volume, pan float64) error {
	sid, err := s.sids.Get(id)
	if err != nil {
		return err
	}
	if s.cfg.sid == nil {
		return ErrNoSIDRenderer
	}
	buf, err := s.cfg.sid.RenderSID(sid.Data, sid.Subtune, s.cfg.sampleRate)
	if err != nil {
		return fmt.Errorf("sid %d: %w", id, err)
	}
	s.mixer.Play(buf, volume, pan)
	return nil
}

// Shared bank queries.

func (s *System) Exists(kind BankKind, id uint32) bool {
	switch kind {
	case SoundBank:
		return s.sounds.Exists(id)
	case MusicBank:
		return s.music.Exists(id)
	case SIDBank:
		return s.sids.Exists(id)
	}
	return false
}

func (s *System) Free(kind BankKind, id uint32) error {
	switch kind {
	case SoundBank:
		return s.sounds.Free(id)
	case MusicBank:
		s.dropRendered(id)
		return s.music.Free(id)
	case SIDBank:
		return s.sids.Free(id)
	}
	return ErrNotFound
}

func (s *System) dropRendered(musicID uint32) {
	s.mu.Lock()
	sid, ok := s.rendered[musicID]
	delete(s.rendered, musicID)
	s.mu.Unlock()
	if ok {
		s.sounds.Free(sid)
	}
}

func (s *System) FreeAll(kind BankKind) {
	switch kind {
	case SoundBank:
		s.sounds.FreeAll()
	case MusicBank:
		s.mu.Lock()
		ids := make([]uint32, 0, len(s.rendered))
		for id := range s.rendered {
			ids = append(ids, id)
		}
		s.mu.Unlock()
		for _, id := range ids {
			s.dropRendered(id)
		}
		s.music.FreeAll()
	case SIDBank:
		s.sids.FreeAll()
	}
}

func (s *System) Count(kind BankKind) int {
	switch kind {
	case SoundBank:
		return s.sounds.Count()
	case MusicBank:
		return s.music.Count()
	case SIDBank:
		return s.sids.Count()
	}
	return 0
}

func (s *System) MemoryUsage(kind BankKind) int {
	switch kind {
	case SoundBank:
		return s.sounds.MemoryUsage()
	case MusicBank:
		return s.music.MemoryUsage()
	case SIDBank:
		return s.sids.MemoryUsage()
	}
	return 0
}
