package gatelib

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// LibraryLexer defines the lexical structure of one gate-library line.
// Lines are lexed independently, so newlines never reach the grammar.
var LibraryLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments (# to end of line)
	{Name: "Comment", Pattern: `#[^\n]*`},

	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},

	// Decimal numbers: delays, capacitances and pin counts
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},

	// Cell names and the format keyword. Cannot start with a digit.
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_$.\[\]\-]*`},
})
