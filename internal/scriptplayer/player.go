// Package scriptplayer runs compiled voice scripts in real time on a
// polling goroutine.
package scriptplayer

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/superterminal/voicesynth/internal/vscript"
)

// DefaultInterval is the polling period of the player goroutine.
const DefaultInterval = 5 * time.Millisecond

// ErrUnknownScript is returned by Play for names never registered.
var ErrUnknownScript = errors.New("unknown script")

// Target is what scripts drive. *synth.Controller satisfies it.
type Target interface {
	vscript.Target
	ResetAllVoices()
}

type Option func(*config)

type config struct {
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// WithInterval overrides the polling period.
func WithInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithLogger sets the logger for play, stop and compile events.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Player owns named programs and plays at most one at a time.
type Player struct {
	mu      sync.Mutex
	target  Target
	scripts map[string]*vscript.Program
	interp  *vscript.Interp
	current string
	last    time.Time
	done    chan struct{}
	closed  bool

	log      *slog.Logger
	now      func() time.Time
	interval time.Duration
	quit     chan struct{}
	wg       sync.WaitGroup
}

// New starts a player driving target.
func New(target Target, opts ...Option) *Player {
	p := newPlayer(target, opts...)
	p.wg.Add(1)
	go p.loop()
	return p
}

func newPlayer(target Target, opts ...Option) *Player {
	cfg := config{
		interval: DefaultInterval,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Player{
		target:   target,
		scripts:  make(map[string]*vscript.Program),
		log:      cfg.logger,
		now:      cfg.now,
		interval: cfg.interval,
		quit:     make(chan struct{}),
	}
}

func (p *Player) loop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.quit:
			return
		case now := <-ticker.C:
			p.tick(now)
		}
	}
}

// tick advances the running script to now.
func (p *Player) tick(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.interp == nil {
		return
	}
	dt := now.Sub(p.last).Seconds()
	p.last = now
	if dt < 0 {
		dt = 0
	}
	if !p.interp.Step(dt) {
		p.log.Info("script finished", "script", p.current)
		p.finishLocked()
	}
}

func (p *Player) finishLocked() {
	p.interp = nil
	p.current = ""
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
}

// Register stores prog under name, replacing any previous program. A
// playing script keeps running its old program until it is played again.
func (p *Player) Register(name string, prog *vscript.Program) {
	p.mu.Lock()
	p.scripts[name] = prog
	p.mu.Unlock()
}

// Load compiles src and registers it under name.
func (p *Player) Load(name, src string) error {
	prog, err := vscript.Compile(src)
	if err != nil {
		p.log.Warn("script compile failed", "script", name, "err", err)
		return fmt.Errorf("script %q: %w", name, err)
	}
	p.Register(name, prog)
	return nil
}

// Unregister drops name. It reports whether the name existed.
func (p *Player) Unregister(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.scripts[name]
	delete(p.scripts, name)
	return ok
}

// Scripts lists registered names in sorted order.
func (p *Player) Scripts() []string {
	p.mu.Lock()
	names := make([]string, 0, len(p.scripts))
	for n := range p.scripts {
		names = append(names, n)
	}
	p.mu.Unlock()
	slices.Sort(names)
	return names
}

// Play starts name from the beginning at bpm, pre-empting whatever is
// playing. Instructions due at beat 0 run before Play returns.
func (p *Player) Play(name string, bpm float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	prog, ok := p.scripts[name]
	if !ok {
		return fmt.Errorf("play %q: %w", name, ErrUnknownScript)
	}
	if p.closed {
		return errors.New("script player closed")
	}
	if p.interp != nil {
		p.finishLocked()
	}
	p.interp = vscript.NewInterp(prog, p.target, bpm)
	p.current = name
	p.last = p.now()
	p.done = make(chan struct{})
	p.log.Info("script playing", "script", name, "bpm", p.interp.BPM())
	if !p.interp.Step(0) {
		p.finishLocked()
	}
	return nil
}

// Stop ends the running script and resets every voice.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.interp == nil {
		return
	}
	p.log.Info("script stopped", "script", p.current)
	p.finishLocked()
	p.target.ResetAllVoices()
}

// SetTempo changes the tempo of the running script.
func (p *Player) SetTempo(bpm float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.interp != nil {
		p.interp.SetTempo(bpm)
	}
}

// Playing returns the running script's name.
func (p *Player) Playing() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.interp != nil
}

// Wait blocks until the current script finishes or is stopped. It returns
// immediately when nothing is playing.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close stops playback and the polling goroutine.
func (p *Player) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	p.Stop()
	close(p.quit)
	p.wg.Wait()
}
