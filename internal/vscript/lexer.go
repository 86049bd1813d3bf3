package vscript

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokIdent tokenKind = iota + 1
	tokNumber
	tokString
)

type token struct {
	kind tokenKind
	text string
	num  float64
	line int
}

func (t token) String() string {
	if t.kind == tokString {
		return "'" + t.text + "'"
	}
	return t.text
}

// lex splits src into lines of tokens. A '#' starts a comment only at the
// start of a token, so note names like C#4 survive. Empty lines are dropped.
func lex(src string) ([][]token, ErrorList) {
	var lines [][]token
	var errs ErrorList
	for n, raw := range strings.Split(src, "\n") {
		line := n + 1
		toks, err := lexLine(strings.TrimSuffix(raw, "\r"), line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(toks) > 0 {
			lines = append(lines, toks)
		}
	}
	return lines, errs
}

func lexLine(s string, line int) ([]token, *Error) {
	var toks []token
	rs := []rune(s)
	i := 0
	for i < len(rs) {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '#':
			return toks, nil
		case r == '\'':
			j := i + 1
			for j < len(rs) && rs[j] != '\'' {
				j++
			}
			if j >= len(rs) {
				return nil, &Error{Line: line, Msg: "unterminated string"}
			}
			toks = append(toks, token{kind: tokString, text: string(rs[i+1 : j]), line: line})
			i = j + 1
		default:
			j := i
			for j < len(rs) && !unicode.IsSpace(rs[j]) && rs[j] != '\'' {
				j++
			}
			text := string(rs[i:j])
			if v, err := strconv.ParseFloat(text, 64); err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
				toks = append(toks, token{kind: tokNumber, text: text, num: v, line: line})
			} else {
				toks = append(toks, token{kind: tokIdent, text: text, line: line})
			}
			i = j
		}
	}
	return toks, nil
}
