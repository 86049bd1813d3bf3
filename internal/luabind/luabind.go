// Package luabind exposes the controller operations to Lua host scripts as
// flat procedures, one global per operation (voice_set_waveform,
// filter_set_cutoff, lfo_set_rate, ...).
//
// Voice and LFO procedures take the 1-based index first. Enumerations accept
// either their number or their name, booleans accept Lua booleans, numbers
// or ON/OFF, and notes accept a MIDI number or a name such as "C#4".
package luabind

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/superterminal/voicesynth/internal/logging"
	"github.com/superterminal/voicesynth/internal/synth"
)

// Target executes commands built from Lua calls.
type Target interface {
	Exec(synth.Command)
}

// Option configures an Env.
type Option func(*Env)

// WithLogger routes print() and load failures to log.
func WithLogger(log *slog.Logger) Option {
	return func(e *Env) { e.log = log }
}

// WithProc registers an extra global procedure.
func WithProc(name string, fn lua.LGFunction) Option {
	return func(e *Env) { e.procs[name] = fn }
}

// Env is one Lua state bound to a target. It is not safe for concurrent use.
type Env struct {
	L      *lua.LState
	target Target
	log    *slog.Logger
	procs  map[string]lua.LGFunction
}

// New opens a sandboxed state with the base, table, string and math
// libraries and binds every operation in synth.Ops to target.
func New(target Target, opts ...Option) *Env {
	e := &Env{target: target, procs: map[string]lua.LGFunction{}}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logging.OrDiscard(e.log)
	e.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		e.L.Push(e.L.NewFunction(lib.fn))
		e.L.Push(lua.LString(lib.name))
		e.L.Call(1, 0)
	}
	// base opens dofile and loadfile; keep scripts away from the filesystem.
	e.L.SetGlobal("dofile", lua.LNil)
	e.L.SetGlobal("loadfile", lua.LNil)
	e.L.SetGlobal("print", e.L.NewFunction(e.print))
	e.L.SetGlobal("note", e.L.NewFunction(luaNote))
	e.L.SetGlobal("note_hz", e.L.NewFunction(luaNoteHz))
	for i := range synth.Ops {
		spec := &synth.Ops[i]
		e.L.SetGlobal(spec.Func, e.L.NewFunction(e.bind(spec)))
	}
	for name, fn := range e.procs {
		e.L.SetGlobal(name, e.L.NewFunction(fn))
	}
	return e
}

// DoString runs a chunk of Lua source.
func (e *Env) DoString(src string) error {
	if err := e.L.DoString(src); err != nil {
		e.log.Warn("lua error", "err", err)
		return fmt.Errorf("lua: %w", err)
	}
	return nil
}

// DoFile runs a Lua file.
func (e *Env) DoFile(path string) error {
	if err := e.L.DoFile(path); err != nil {
		e.log.Warn("lua error", "path", path, "err", err)
		return fmt.Errorf("lua: %s: %w", path, err)
	}
	return nil
}

// Close releases the Lua state.
func (e *Env) Close() { e.L.Close() }

func (e *Env) bind(spec *synth.OpSpec) lua.LGFunction {
	return func(L *lua.LState) int {
		cmd := synth.Command{Op: spec.Op}
		at := 1
		if spec.Scope == synth.ScopeVoice || spec.Scope == synth.ScopeLFO {
			cmd.Target = L.CheckInt(1)
			at = 2
		}
		for i, a := range spec.Args {
			v, text := argValue(L, at+i, a)
			cmd.Args[i] = v
			if text != "" {
				cmd.Text = text
			}
		}
		e.target.Exec(cmd)
		return 0
	}
}

func argValue(L *lua.LState, n int, a synth.ArgSpec) (float64, string) {
	lv := L.Get(n)
	switch a.Kind {
	case synth.ArgNumber:
		return float64(L.CheckNumber(n)), ""
	case synth.ArgString:
		return 0, L.CheckString(n)
	case synth.ArgVoice, synth.ArgLFO:
		return float64(L.CheckInt(n)), ""
	case synth.ArgBool:
		switch v := lv.(type) {
		case lua.LBool:
			if v {
				return 1, ""
			}
			return 0, ""
		case lua.LNumber:
			if v != 0 {
				return 1, ""
			}
			return 0, ""
		}
	case synth.ArgNote:
		if s, ok := lv.(lua.LString); ok {
			// Resolved by the controller when the command runs.
			return 0, string(s)
		}
	}
	switch v := lv.(type) {
	case lua.LNumber:
		f := float64(v)
		if a.Kind != synth.ArgNote && f != math.Trunc(f) {
			L.ArgError(n, "expected integer")
		}
		return f, ""
	case lua.LString:
		if f, ok := synth.ParseArg(a.Kind, string(v)); ok {
			return f, ""
		}
		L.ArgError(n, fmt.Sprintf("unknown %s %q", a.Name, string(v)))
	default:
		L.ArgError(n, a.Name+" expected, got "+lv.Type().String())
	}
	return 0, ""
}

func (e *Env) print(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, 0, top)
	for i := 1; i <= top; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	e.log.Info("lua print", "text", strings.Join(parts, " "))
	return 0
}

// note("C#4") returns the MIDI number, or nil for an invalid name.
func luaNote(L *lua.LState) int {
	midi, ok := synth.ParseNoteName(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(midi))
	return 1
}

// note_hz(69) returns 440.
func luaNoteHz(L *lua.LState) int {
	L.Push(lua.LNumber(synth.MIDIToHz(float64(L.CheckNumber(1)))))
	return 1
}
