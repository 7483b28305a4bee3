package gatelib

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
)

// Parser reads gate library files.
type Parser struct {
	parser     *participle.Parser[libraryLine]
	maxLatency float64
	logger     *slog.Logger
}

// NewParser creates a library parser. Strengths of parsed variants are
// computed as maxLatency / delay.
func NewParser(maxLatency float64, logger *slog.Logger) (*Parser, error) {
	if maxLatency <= 0 {
		return nil, fmt.Errorf("gatelib: max latency must be positive, got %g", maxLatency)
	}
	parser, err := participle.Build[libraryLine](
		participle.Lexer(LibraryLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{parser: parser, maxLatency: maxLatency, logger: logger}, nil
}

// Parse reads a library from r. name is used in diagnostics.
//
// Blank and comment lines are skipped. A FORMAT directive naming an
// unsupported format is reported and leaves the format unset. A gate record
// seen while no supported format is active aborts the load with
// ErrNoFormat. Malformed records are reported and skipped.
func (p *Parser) Parse(name string, r io.Reader) (*Catalog, error) {
	catalog := newCatalog(p.maxLatency)
	format := ""

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		line, err := p.parser.ParseString(name, text)
		if err != nil {
			p.logger.Warn("skipping malformed library line",
				"file", name, "line", lineNo, "error", err)
			continue
		}

		if line.Format != nil {
			if line.Format.Name != FormatD0 {
				p.logger.Warn("unsupported library format",
					"file", name, "line", lineNo, "format", line.Format.Name)
				format = ""
				continue
			}
			format = line.Format.Name
			continue
		}

		if format == "" {
			return nil, fmt.Errorf("%s:%d: %w (gate %s)", name, lineNo, ErrNoFormat, line.Record.Name)
		}

		gate, err := line.Record.variant(p.maxLatency)
		if err != nil {
			p.logger.Warn("skipping gate record", "file", name, "line", lineNo, "error", err)
			continue
		}
		if len(line.Record.Cpin) > gate.Inputs {
			p.logger.Debug("ignoring extra pin capacitances",
				"gate", gate.Name, "extra", len(line.Record.Cpin)-gate.Inputs)
		}
		if !catalog.add(gate) {
			p.logger.Warn("duplicate gate definition ignored",
				"file", name, "line", lineNo, "gate", gate.Name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("gatelib: read %s: %w", name, err)
	}

	if catalog.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoGates)
	}
	return catalog, nil
}

// ParseString parses a library held in a string.
func (p *Parser) ParseString(input string) (*Catalog, error) {
	return p.Parse("<string>", strings.NewReader(input))
}

// ParseFile parses the library at path.
func (p *Parser) ParseFile(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gate file: %w", err)
	}
	defer file.Close()

	return p.Parse(path, file)
}
