package vscript

import "github.com/superterminal/voicesynth/internal/synth"

// Stmt is one parsed statement.
type Stmt interface {
	stmtLine() int
}

// CmdStmt executes one controller operation. Text is set for note names
// resolved when the statement runs.
type CmdStmt struct {
	Line   int
	Op     synth.Op
	Target int
	Args   []float64
	Text   string
}

// WaitStmt advances the beat cursor.
type WaitStmt struct {
	Line  int
	Beats float64
}

// TempoStmt changes the interpreter tempo.
type TempoStmt struct {
	Line int
	BPM  float64
}

// LoopStmt repeats Body Count times.
type LoopStmt struct {
	Line  int
	Count int
	Body  []Stmt
}

func (s *CmdStmt) stmtLine() int   { return s.Line }
func (s *WaitStmt) stmtLine() int  { return s.Line }
func (s *TempoStmt) stmtLine() int { return s.Line }
func (s *LoopStmt) stmtLine() int  { return s.Line }

// Script is the parsed form of a source file.
type Script struct {
	Stmts []Stmt
}
