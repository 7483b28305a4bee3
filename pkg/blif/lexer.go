// Package blif tokenizes BLIF-style gate netlists and tracks gate instance
// statements with an explicit state machine.
//
// Only the subset used by mapped netlists is recognized:
//
//	.model top
//	.inputs a b
//	.outputs y
//	.gate NAND2X1 A=a B=b Y=n1
//	.gate INVX1 A=n1 Y=y
//	.end
//
// Tokens keep their byte offsets so that callers can rewrite a single
// token of a line and leave the rest of it untouched.
package blif

import "strings"

// Token is a word of a netlist line.
type Token struct {
	Text  string
	Line  int // caller-assigned line index
	Start int // byte offset of the first character within the line
	End   int // byte offset just past the last character
}

// IsDirective reports whether the token is a dot directive such as .gate.
func (t Token) IsDirective() bool {
	return strings.HasPrefix(t.Text, ".")
}

// isSeparator matches the characters that split tokens. '=' splits pin
// from net and '\' marks a continuation line.
func isSeparator(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '=', '\\':
		return true
	}
	return false
}

// Tokenize splits one physical line into tokens. A '#' at the start of a
// token begins a comment running to the end of the line.
func Tokenize(line string, lineIndex int) []Token {
	var tokens []Token
	i := 0
	for i < len(line) {
		if isSeparator(line[i]) {
			i++
			continue
		}
		if line[i] == '#' {
			break
		}
		start := i
		for i < len(line) && !isSeparator(line[i]) {
			i++
		}
		tokens = append(tokens, Token{
			Text:  line[start:i],
			Line:  lineIndex,
			Start: start,
			End:   i,
		})
	}
	return tokens
}

// FirstIsDirective reports whether the first token of line is a directive.
func FirstIsDirective(tokens []Token) bool {
	return len(tokens) > 0 && tokens[0].IsDirective()
}
