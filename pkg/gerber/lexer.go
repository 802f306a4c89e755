// Package gerber parses Gerber RS-274X photoplotter files and Excellon
// drill files, bundled together in a ZIP, into pcbmodel.PcbData.
//
// The pipeline mirrors a Gerber toolchain's own stage split: a token lexer
// (this file), a coordinate/unit converter, an aperture table, a command
// parser, an aperture-macro expression engine, a state-machine interpreter
// that turns commands into drawings, a layer-role classifier, an Excellon
// drill decoder, and a top-level assembler that zips per-file output into
// one PcbData.
package gerber

import "strings"

// tokenKind distinguishes a Gerber extended command block (between '%'
// delimiters) from a bare word command (terminated by '*').
type tokenKind int

const (
	tokenExtended tokenKind = iota
	tokenWord
)

// token is one lexed Gerber command, already comment-filtered and trimmed.
type token struct {
	kind    tokenKind
	content string
}

// isComment reports whether s is a Gerber comment command (G04/G4).
func isComment(s string) bool {
	return strings.HasPrefix(s, "G04") || strings.HasPrefix(s, "G4")
}

// tokenize splits a Gerber source file into a flat token stream. An
// extended block "%...*...*%" may hold several '*'-separated commands;
// each is emitted as its own tokenExtended. A bare word command runs from
// wherever the previous command left off up to the next '*', unless a '%'
// interrupts it first — in which case the partial word is discarded and
// lexing resumes on the extended block, matching the way a real plotter
// file never actually mixes the two mid-command.
func tokenize(input string) []token {
	var tokens []token
	runes := []rune(input)
	i, n := 0, len(runes)

	skipSpace := func() {
		for i < n {
			switch runes[i] {
			case '\n', '\r', ' ', '\t':
				i++
			default:
				return
			}
		}
	}

	for {
		skipSpace()
		if i >= n {
			break
		}
		switch runes[i] {
		case '%':
			i++
			start := i
			for i < n && runes[i] != '%' {
				i++
			}
			block := string(runes[start:i])
			if i < n {
				i++ // consume closing '%'
			}
			for _, part := range strings.Split(block, "*") {
				part = strings.TrimSpace(part)
				if part == "" || isComment(part) {
					continue
				}
				tokens = append(tokens, token{kind: tokenExtended, content: part})
			}
		default:
			start := i
			for i < n && runes[i] != '*' && runes[i] != '%' {
				i++
			}
			if i < n && runes[i] == '%' {
				// Partial word interrupted by an extended block; drop it.
				continue
			}
			word := strings.TrimSpace(string(runes[start:i]))
			if i < n && runes[i] == '*' {
				i++
			}
			if word == "" || isComment(word) {
				continue
			}
			tokens = append(tokens, token{kind: tokenWord, content: word})
		}
	}
	return tokens
}
