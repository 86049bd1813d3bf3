package luabind

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/superterminal/voicesynth/internal/effects"
	"github.com/superterminal/voicesynth/internal/logging"
	"github.com/superterminal/voicesynth/internal/lfo"
	"github.com/superterminal/voicesynth/internal/osc"
	"github.com/superterminal/voicesynth/internal/synth"
)

type fakeTarget struct{ cmds []synth.Command }

func (f *fakeTarget) Exec(c synth.Command) { f.cmds = append(f.cmds, c) }

func TestEveryOpIsBound(t *testing.T) {
	e := New(&fakeTarget{})
	defer e.Close()
	for _, spec := range synth.Ops {
		if e.L.GetGlobal(spec.Func).Type() != lua.LTFunction {
			t.Fatalf("%s is not bound", spec.Func)
		}
	}
}

func TestCallsBuildCommands(t *testing.T) {
	ft := &fakeTarget{}
	e := New(ft)
	defer e.Close()
	src := `
voice_set_waveform(1, "saw")
voice_set_note(2, "A4")
voice_set_note(2, 61)
voice_set_gate(1, true)
voice_set_envelope(3, 10, 20, 0.5, 300)
filter_set_type("highpass")
filter_set_cutoff(800)
lfo_set_waveform(2, "samplehold")
voice_set_lfo_pitch(1, 2, 50)
voice_set_test_bit(4, "on")
voices_reset_all()
`
	if err := e.DoString(src); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []synth.Command{
		synth.Cmd(synth.OpWaveform, 1, float64(osc.Saw)),
		{Op: synth.OpNote, Target: 2, Text: "A4"},
		synth.Cmd(synth.OpNote, 2, 61),
		synth.Cmd(synth.OpGate, 1, 1),
		synth.Cmd(synth.OpEnvelope, 3, 10, 20, 0.5, 300),
		synth.Cmd(synth.OpFilterType, 0, float64(effects.FilterHighPass)),
		synth.Cmd(synth.OpFilterCutoff, 0, 800),
		synth.Cmd(synth.OpLFOWaveform, 2, float64(lfo.WaveSampleHold)),
		synth.Cmd(synth.OpLFOPitch, 1, 2, 50),
		synth.Cmd(synth.OpTestBit, 4, 1),
		synth.Cmd(synth.OpResetAll, 0),
	}
	if len(ft.cmds) != len(want) {
		t.Fatalf("got %d commands, want %d: %+v", len(ft.cmds), len(want), ft.cmds)
	}
	for i, w := range want {
		if ft.cmds[i] != w {
			t.Fatalf("command %d = %+v, want %+v", i, ft.cmds[i], w)
		}
	}
}

func TestBadArgumentsFail(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown waveform", `voice_set_waveform(1, "kazoo")`},
		{"fractional enum", `voice_set_waveform(1, 1.5)`},
		{"missing voice", `voice_set_gate()`},
		{"wrong type", `filter_set_cutoff({})`},
		{"sandboxed os", `os.exit(1)`},
		{"sandboxed dofile", `dofile("/etc/passwd")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTarget{}
			e := New(ft)
			defer e.Close()
			if err := e.DoString(tt.src); err == nil {
				t.Fatalf("expected error")
			}
			if len(ft.cmds) != 0 {
				t.Fatalf("failed call still executed %+v", ft.cmds)
			}
		})
	}
}

func TestHelpersAndExtraProcs(t *testing.T) {
	var waited []float64
	wait := func(L *lua.LState) int {
		waited = append(waited, float64(L.CheckNumber(1)))
		return 0
	}
	var logs bytes.Buffer
	log, _ := logging.New(&logs, "info")
	e := New(&fakeTarget{}, WithProc("voice_wait", wait), WithLogger(log))
	defer e.Close()
	path := filepath.Join(t.TempDir(), "host.lua")
	src := "for i = 1, 3 do voice_wait(i / 2) end\nprint('c4', note('C4'), note_hz(69))\nassert(note('H9') == nil)\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := e.DoFile(path); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(waited) != 3 || waited[2] != 1.5 {
		t.Fatalf("waited = %v", waited)
	}
	if !strings.Contains(logs.String(), "c4 60 440") {
		t.Fatalf("print output %q", logs.String())
	}
}
