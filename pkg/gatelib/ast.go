package gatelib

import "github.com/alecthomas/participle/v2/lexer"

// libraryLine is one non-comment line of a gate library file.
// Example: FORMAT D0
// Example: NAND2X1 1.25 2 0.9 1.1 1.05
type libraryLine struct {
	Format *formatDirective `  @@`
	Record *gateRecord      `| @@`
}

// formatDirective selects the column layout of the records that follow.
type formatDirective struct {
	Name string `"FORMAT" @( Ident | Number )`
}

// gateRecord is a D0 gate row: name delay num_inputs Cint Cpin_1 ... Cpin_n
type gateRecord struct {
	Pos lexer.Position

	Name   string    `@Ident`
	Delay  float64   `@Number`
	Inputs int       `@Number`
	Cint   float64   `@Number`
	Cpin   []float64 `@Number*`
}
