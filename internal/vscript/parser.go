package vscript

import (
	"math"
	"strings"

	"github.com/superterminal/voicesynth/internal/lfo"
	"github.com/superterminal/voicesynth/internal/synth"
)

// MaxLoopCount bounds a single LOOP.
const MaxLoopCount = 1_000_000

type parser struct {
	lines [][]token
	pos   int
	errs  ErrorList
}

// Parse turns source into a Script. All errors found are returned together
// as an ErrorList.
func Parse(src string) (*Script, error) {
	lines, errs := lex(src)
	p := &parser{lines: lines, errs: errs}
	stmts, _ := p.block(false)
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	return &Script{Stmts: stmts}, nil
}

// block parses statements until END or end of input. closed reports
// whether an END was consumed.
func (p *parser) block(inLoop bool) (stmts []Stmt, closed bool) {
	for p.pos < len(p.lines) {
		toks := p.lines[p.pos]
		p.pos++
		line := toks[0].line
		if toks[0].kind != tokIdent {
			p.errs.add(line, "expected statement, got %s", toks[0])
			continue
		}
		head := strings.ToUpper(toks[0].text)
		switch head {
		case "END":
			if !inLoop {
				p.errs.add(line, "END without LOOP")
				continue
			}
			p.noMore(toks[1:], line)
			return stmts, true
		case "LOOP":
			n, ok := p.integer(toks, 1, line, "LOOP count")
			if ok && (n < 0 || n > MaxLoopCount) {
				p.errs.add(line, "LOOP count %d out of range 0..%d", n, MaxLoopCount)
			}
			if ok {
				p.noMore(toks[2:], line)
			}
			body, closed := p.block(true)
			if !closed {
				p.errs.add(line, "LOOP without END")
			}
			stmts = append(stmts, &LoopStmt{Line: line, Count: n, Body: body})
		case "WAIT":
			v, ok := p.number(toks, 1, line, "WAIT beats")
			if ok && v < 0 {
				p.errs.add(line, "WAIT beats must not be negative")
				continue
			}
			if ok && p.noMore(toks[2:], line) {
				stmts = append(stmts, &WaitStmt{Line: line, Beats: v})
			}
		case "TEMPO":
			v, ok := p.number(toks, 1, line, "TEMPO bpm")
			if ok && (v < synth.MinTempo || v > synth.MaxTempo) {
				p.errs.add(line, "TEMPO %g out of range %g..%g", v, synth.MinTempo, synth.MaxTempo)
				continue
			}
			if ok && p.noMore(toks[2:], line) {
				stmts = append(stmts, &TempoStmt{Line: line, BPM: v})
			}
		case "VOICE":
			n, ok := p.integer(toks, 1, line, "voice number")
			if !ok {
				continue
			}
			if n < 1 {
				p.errs.add(line, "voice number %d must be at least 1", n)
				continue
			}
			if s := p.command(synth.ScopeVoice, n, toks, 2, line); s != nil {
				stmts = append(stmts, s)
			}
		case "LFO":
			n, ok := p.integer(toks, 1, line, "LFO number")
			if !ok {
				continue
			}
			if !lfo.Valid(n) {
				p.errs.add(line, "LFO number %d out of range 1..%d", n, lfo.Count)
				continue
			}
			if s := p.command(synth.ScopeLFO, n, toks, 2, line); s != nil {
				stmts = append(stmts, s)
			}
		case "FILTER":
			if s := p.command(synth.ScopeFilter, 0, toks, 1, line); s != nil {
				stmts = append(stmts, s)
			}
		default:
			if s := p.command(synth.ScopeGlobal, 0, toks, 0, line); s != nil {
				stmts = append(stmts, s)
			}
		}
	}
	return stmts, false
}

func (p *parser) noMore(rest []token, line int) bool {
	if len(rest) > 0 {
		p.errs.add(line, "unexpected %s", rest[0])
		return false
	}
	return true
}

func (p *parser) number(toks []token, i, line int, what string) (float64, bool) {
	if i >= len(toks) {
		p.errs.add(line, "missing %s", what)
		return 0, false
	}
	if toks[i].kind != tokNumber {
		p.errs.add(line, "%s: expected number, got %s", what, toks[i])
		return 0, false
	}
	return toks[i].num, true
}

func (p *parser) integer(toks []token, i, line int, what string) (int, bool) {
	v, ok := p.number(toks, i, line, what)
	if !ok {
		return 0, false
	}
	if v != math.Trunc(v) {
		p.errs.add(line, "%s: expected integer, got %s", what, toks[i])
		return 0, false
	}
	return int(v), true
}

// command parses "<KEYWORD> args..." starting at toks[at] within scope.
func (p *parser) command(scope synth.Scope, target int, toks []token, at, line int) Stmt {
	if at >= len(toks) {
		p.errs.add(line, "missing %s attribute", scope)
		return nil
	}
	kw := toks[at]
	spec, ok := synth.LookupKeyword(scope, kw.text)
	if kw.kind != tokIdent || !ok {
		if scope == synth.ScopeGlobal {
			p.errs.add(line, "unknown statement %s", kw)
		} else {
			p.errs.add(line, "unknown %s attribute %s", scope, kw)
		}
		return nil
	}
	args := toks[at+1:]
	if len(args) != len(spec.Args) {
		p.errs.add(line, "%s expects %d argument(s), got %d", spec.Keyword, len(spec.Args), len(args))
		return nil
	}
	st := &CmdStmt{Line: line, Op: spec.Op, Target: target, Args: make([]float64, len(args))}
	for i, a := range spec.Args {
		v, text, err := argValue(a.Kind, args[i])
		if err != "" {
			p.errs.add(line, "%s %s: %s", spec.Keyword, a.Name, err)
			return nil
		}
		st.Args[i] = v
		if text != "" {
			st.Text = text
		}
	}
	if st.Op == synth.OpNote && st.Text != "" {
		st.Op = synth.OpNoteName
		st.Args = nil
	}
	return st
}

// argValue converts one token according to kind. A quoted note name is
// returned as text for resolution when the statement runs.
func argValue(kind synth.ArgKind, t token) (float64, string, string) {
	switch kind {
	case synth.ArgString:
		if t.kind == tokNumber {
			return 0, "", "expected a name, got " + t.String()
		}
		return 0, t.text, ""
	case synth.ArgNote:
		switch t.kind {
		case tokNumber:
			return t.num, "", ""
		case tokString:
			return 0, t.text, ""
		}
		if midi, ok := synth.ParseArg(kind, t.text); ok {
			return midi, "", ""
		}
		return 0, "", "invalid note name " + t.text
	}
	if t.kind == tokString {
		return 0, "", "unexpected string " + t.String()
	}
	if t.kind == tokNumber {
		if kind != synth.ArgNumber && kind != synth.ArgBool && t.num != math.Trunc(t.num) {
			return 0, "", "expected integer, got " + t.text
		}
		return t.num, "", ""
	}
	v, ok := synth.ParseArg(kind, t.text)
	if !ok {
		return 0, "", "unknown value " + t.text
	}
	return v, "", ""
}
