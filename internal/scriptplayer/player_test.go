package scriptplayer

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/superterminal/voicesynth/internal/synth"
)

type fakeTarget struct {
	mu     sync.Mutex
	cmds   []synth.Command
	resets int
}

func (f *fakeTarget) Exec(c synth.Command) {
	f.mu.Lock()
	f.cmds = append(f.cmds, c)
	f.mu.Unlock()
}

func (f *fakeTarget) ResetAllVoices() {
	f.mu.Lock()
	f.resets++
	f.mu.Unlock()
}

func (f *fakeTarget) gates() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []float64
	for _, c := range f.cmds {
		if c.Op == synth.OpGate {
			out = append(out, c.Args[0])
		}
	}
	return out
}

const pulse = "VOICE 1 GATE ON\nWAIT 1\nVOICE 1 GATE OFF\n"

func TestTickFollowsClock(t *testing.T) {
	f := &fakeTarget{}
	p := newPlayer(f)
	if err := p.Load("pulse", pulse); err != nil {
		t.Fatalf("load: %v", err)
	}
	start := time.Unix(0, 0)
	p.now = func() time.Time { return start }
	if err := p.Play("pulse", 120); err != nil {
		t.Fatalf("play: %v", err)
	}
	if g := f.gates(); len(g) != 1 || g[0] != 1 {
		t.Fatalf("gate on should run at play time, got %v", g)
	}
	p.tick(start.Add(400 * time.Millisecond))
	if g := f.gates(); len(g) != 1 {
		t.Fatalf("gate off ran early: %v", g)
	}
	p.tick(start.Add(600 * time.Millisecond))
	if g := f.gates(); len(g) != 2 || g[1] != 0 {
		t.Fatalf("gate off should run at beat 1, got %v", g)
	}
	if _, playing := p.Playing(); playing {
		t.Fatalf("script should have finished")
	}
	if f.resets != 0 {
		t.Fatalf("natural finish must not reset voices")
	}
}

func TestSetTempoScalesTime(t *testing.T) {
	f := &fakeTarget{}
	p := newPlayer(f)
	p.Load("pulse", pulse)
	start := time.Unix(0, 0)
	p.now = func() time.Time { return start }
	p.Play("pulse", 60)
	p.SetTempo(240)
	p.tick(start.Add(250 * time.Millisecond))
	if g := f.gates(); len(g) != 2 {
		t.Fatalf("at 240 BPM one beat is 250ms, gates %v", g)
	}
}

func TestPlayUnknownScript(t *testing.T) {
	p := newPlayer(&fakeTarget{})
	if err := p.Play("missing", 120); !errors.Is(err, ErrUnknownScript) {
		t.Fatalf("expected ErrUnknownScript, got %v", err)
	}
}

func TestLoadRejectsBadScript(t *testing.T) {
	p := newPlayer(&fakeTarget{})
	if err := p.Load("bad", "VOICE 1 WOBBLE"); err == nil {
		t.Fatalf("expected compile error")
	}
	if len(p.Scripts()) != 0 {
		t.Fatalf("failed compile must not register")
	}
}

func TestPlayPreemptsAndStopResets(t *testing.T) {
	f := &fakeTarget{}
	p := New(f, WithInterval(time.Millisecond))
	defer p.Close()
	p.Load("long", "VOICE 1 GATE ON\nWAIT 1000\n")
	p.Load("other", "VOICE 2 GATE ON\nWAIT 1000\n")
	p.Play("long", 120)
	p.Play("other", 120)
	if name, ok := p.Playing(); !ok || name != "other" {
		t.Fatalf("playing = %q %v, want other", name, ok)
	}
	p.Stop()
	if _, ok := p.Playing(); ok {
		t.Fatalf("still playing after Stop")
	}
	if f.resets != 1 {
		t.Fatalf("Stop should reset voices once, got %d", f.resets)
	}
	p.Wait()
}

func TestRealTimePlaybackFinishes(t *testing.T) {
	f := &fakeTarget{}
	p := New(f, WithInterval(time.Millisecond))
	defer p.Close()
	if err := p.Load("quick", "VOICE 1 GATE ON\nWAIT 0.05\nVOICE 1 GATE OFF\n"); err != nil {
		t.Fatalf("load: %v", err)
	}
	p.Play("quick", 600)
	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("script did not finish")
	}
	if g := f.gates(); len(g) != 2 {
		t.Fatalf("gates = %v", g)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	p := New(&fakeTarget{})
	p.Close()
	p.Close()
	p.Register("x", nil)
	if err := p.Play("x", 120); err == nil {
		t.Fatalf("play after close should fail")
	}
}
