package vscript

import (
	"math"

	"github.com/superterminal/voicesynth/internal/synth"
)

// Target receives the commands a program issues. *synth.Controller and
// *timeline.Timeline both satisfy it.
type Target interface {
	Exec(synth.Command)
}

// Advancer moves a recording cursor; used by Run for WAIT.
type Advancer interface {
	Advance(beats float64)
}

type loopFrame struct {
	start     int
	remaining int
}

// Interp executes a Program against a Target on a beat clock. It is not
// safe for concurrent use.
type Interp struct {
	prog   *Program
	target Target
	bpm    float64
	start  float64
	pc     int
	loops  []loopFrame
	beat   float64
	next   float64
}

// NewInterp prepares prog to run at bpm against target.
func NewInterp(prog *Program, target Target, bpm float64) *Interp {
	in := &Interp{prog: prog, target: target, start: clampTempo(bpm)}
	in.Reset()
	return in
}

func clampTempo(bpm float64) float64 {
	if !(bpm > 0) {
		return 120
	}
	return math.Max(synth.MinTempo, math.Min(synth.MaxTempo, bpm))
}

// Reset rewinds to the first instruction with an empty loop stack, the
// beat cursor at 0 and the starting tempo.
func (in *Interp) Reset() {
	in.pc = 0
	in.loops = in.loops[:0]
	in.beat = 0
	in.next = 0
	in.bpm = in.start
}

// SetTempo changes the tempo from now on.
func (in *Interp) SetTempo(bpm float64) {
	in.bpm = clampTempo(bpm)
}

// BPM returns the current tempo.
func (in *Interp) BPM() float64 { return in.bpm }

// Beat returns the beat cursor.
func (in *Interp) Beat() float64 { return in.beat }

// PC returns the program counter.
func (in *Interp) PC() int { return in.pc }

// Done reports whether every instruction has run and the last WAIT has
// elapsed.
func (in *Interp) Done() bool {
	return in.prog == nil || (in.pc >= len(in.prog.Code) && len(in.loops) == 0 && in.beat >= in.next)
}

// Step advances the beat cursor by elapsed seconds and runs every
// instruction now due. It returns false once the program is done.
func (in *Interp) Step(elapsed float64) bool {
	if in.prog == nil {
		return false
	}
	if elapsed > 0 {
		in.beat += elapsed * in.bpm / 60
	}
	for in.pc < len(in.prog.Code) && in.next <= in.beat {
		in.next += in.exec()
	}
	return !in.Done()
}

// Run executes the rest of the program immediately, turning each WAIT into
// adv.Advance. It is the offline path used for rendering.
func (in *Interp) Run(adv Advancer) {
	if in.prog == nil {
		return
	}
	for in.pc < len(in.prog.Code) {
		if w := in.exec(); w > 0 {
			in.next += w
			if adv != nil {
				adv.Advance(w)
			}
		}
	}
	in.beat = in.next
}

// exec runs the instruction at pc and returns the beats it waits.
func (in *Interp) exec() float64 {
	p := in.prog
	ins := p.Code[in.pc]
	in.pc++
	switch ins.Code {
	case OpcodeExec:
		cmd := synth.Command{Op: ins.Op, Target: ins.Target}
		copy(cmd.Args[:], p.Consts[ins.Arg:ins.Arg+ins.N])
		in.target.Exec(cmd)
	case OpcodeExecNoteName:
		in.target.Exec(synth.Command{Op: synth.OpNoteName, Target: ins.Target, Text: p.Strings[ins.Str]})
	case OpcodeWait:
		return p.Consts[ins.Arg]
	case OpcodeTempo:
		in.bpm = clampTempo(p.Consts[ins.Arg])
		in.target.Exec(synth.Cmd(synth.OpTempo, 0, in.bpm))
	case OpcodeLoop:
		n := int(p.Consts[ins.Arg])
		if n <= 0 {
			in.pc = ins.Jump
			break
		}
		in.loops = append(in.loops, loopFrame{start: in.pc, remaining: n})
	case OpcodeEnd:
		top := &in.loops[len(in.loops)-1]
		top.remaining--
		if top.remaining > 0 {
			in.pc = top.start
		} else {
			in.loops = in.loops[:len(in.loops)-1]
		}
	}
	return 0
}
