package vscript

import (
	"fmt"
	"strings"

	"github.com/superterminal/voicesynth/internal/synth"
)

// Opcode is a bytecode instruction kind.
type Opcode uint8

const (
	OpcodeExec Opcode = iota + 1
	OpcodeExecNoteName
	OpcodeWait
	OpcodeTempo
	OpcodeLoop
	OpcodeEnd
)

func (o Opcode) String() string {
	switch o {
	case OpcodeExec:
		return "EXEC"
	case OpcodeExecNoteName:
		return "EXECNOTE"
	case OpcodeWait:
		return "WAIT"
	case OpcodeTempo:
		return "TEMPO"
	case OpcodeLoop:
		return "LOOP"
	case OpcodeEnd:
		return "END"
	}
	return "?"
}

// Instr is one instruction. Arg indexes the first of N constants; Str
// indexes the string pool. For LOOP, Jump is the instruction after the
// matching END; for END it is the LOOP.
type Instr struct {
	Code   Opcode
	Op     synth.Op
	Target int
	Arg    int
	N      int
	Str    int
	Jump   int
	Line   int
}

// Program is compiled bytecode plus its constant pools. A Program is
// immutable and may be shared by several interpreters.
type Program struct {
	Code    []Instr
	Consts  []float64
	Strings []string
}

// Compile parses and lowers src. Compilation is all-or-nothing: on error
// the result is nil and the error is an ErrorList.
func Compile(src string) (*Program, error) {
	script, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return Emit(script), nil
}

// Emit lowers a parsed script to bytecode.
func Emit(s *Script) *Program {
	e := &emitter{prog: &Program{}}
	e.block(s.Stmts)
	return e.prog
}

type emitter struct {
	prog *Program
}

func (e *emitter) emit(in Instr) int {
	e.prog.Code = append(e.prog.Code, in)
	return len(e.prog.Code) - 1
}

func (e *emitter) consts(vs ...float64) int {
	i := len(e.prog.Consts)
	e.prog.Consts = append(e.prog.Consts, vs...)
	return i
}

func (e *emitter) str(s string) int {
	for i, have := range e.prog.Strings {
		if have == s {
			return i
		}
	}
	e.prog.Strings = append(e.prog.Strings, s)
	return len(e.prog.Strings) - 1
}

func (e *emitter) block(stmts []Stmt) {
	for _, st := range stmts {
		switch s := st.(type) {
		case *CmdStmt:
			if s.Op == synth.OpNoteName {
				e.emit(Instr{Code: OpcodeExecNoteName, Op: s.Op, Target: s.Target, Str: e.str(s.Text), Line: s.Line})
				continue
			}
			e.emit(Instr{Code: OpcodeExec, Op: s.Op, Target: s.Target, Arg: e.consts(s.Args...), N: len(s.Args), Line: s.Line})
		case *WaitStmt:
			e.emit(Instr{Code: OpcodeWait, Arg: e.consts(s.Beats), N: 1, Line: s.Line})
		case *TempoStmt:
			e.emit(Instr{Code: OpcodeTempo, Arg: e.consts(s.BPM), N: 1, Line: s.Line})
		case *LoopStmt:
			loop := e.emit(Instr{Code: OpcodeLoop, Arg: e.consts(float64(s.Count)), N: 1, Line: s.Line})
			e.block(s.Body)
			end := e.emit(Instr{Code: OpcodeEnd, Jump: loop, Line: s.Line})
			e.prog.Code[loop].Jump = end + 1
		}
	}
}

// Disassemble renders the program one instruction per line.
func (p *Program) Disassemble() string {
	var b strings.Builder
	for pc, in := range p.Code {
		fmt.Fprintf(&b, "%04d  %-8s ", pc, in.Code)
		switch in.Code {
		case OpcodeExec:
			fmt.Fprintf(&b, "%s", in.Op)
			if in.Target > 0 {
				fmt.Fprintf(&b, " #%d", in.Target)
			}
			for _, v := range p.Consts[in.Arg : in.Arg+in.N] {
				fmt.Fprintf(&b, " %g", v)
			}
		case OpcodeExecNoteName:
			fmt.Fprintf(&b, "%s #%d '%s'", in.Op, in.Target, p.Strings[in.Str])
		case OpcodeWait, OpcodeTempo:
			fmt.Fprintf(&b, "%g", p.Consts[in.Arg])
		case OpcodeLoop:
			fmt.Fprintf(&b, "%g -> %04d", p.Consts[in.Arg], in.Jump)
		case OpcodeEnd:
			fmt.Fprintf(&b, "-> %04d", in.Jump)
		}
		fmt.Fprintf(&b, "\t; line %d\n", in.Line)
	}
	return b.String()
}
