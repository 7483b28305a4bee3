package gatelib

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testLibrary = `# test library
FORMAT D0
INVX1   1.0  1 1.0 1.0
INVX2   0.5  1 1.0 1.0
INVX4   0.25 1 1.0 1.0
NAND2X1 1.25 2 0.9 1.1 1.05   # trailing comment
BUFX2   0.5  1 1.0 2.0
`

func newTestParser(t *testing.T, maxLatency float64) (*Parser, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	parser, err := NewParser(maxLatency, logger)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	return parser, &logs
}

func TestParseLibrary(t *testing.T) {
	parser, _ := newTestParser(t, 100)

	catalog, err := parser.ParseString(testLibrary)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	if catalog.Len() != 5 {
		t.Fatalf("Expected 5 gates, got %d", catalog.Len())
	}
	if catalog.MaxLatency() != 100 {
		t.Errorf("Expected max latency 100, got %g", catalog.MaxLatency())
	}

	nand, ok := catalog.Lookup("NAND2X1")
	if !ok {
		t.Fatal("NAND2X1 not found")
	}
	if nand.Inputs != 2 {
		t.Errorf("Expected 2 inputs, got %d", nand.Inputs)
	}
	if nand.Cint != 0.9 {
		t.Errorf("Expected Cint 0.9, got %g", nand.Cint)
	}
	if len(nand.Cpin) != 2 || nand.Cpin[0] != 1.1 || nand.Cpin[1] != 1.05 {
		t.Errorf("Unexpected Cpin %v", nand.Cpin)
	}
	if nand.Strength != 80 {
		t.Errorf("Expected strength 80, got %g", nand.Strength)
	}

	inv4, _ := catalog.Lookup("INVX4")
	if inv4.Strength != 400 {
		t.Errorf("Expected INVX4 strength 400, got %g", inv4.Strength)
	}

	names := make([]string, 0, catalog.Len())
	for _, g := range catalog.Gates() {
		names = append(names, g.Name)
	}
	if got := strings.Join(names, ","); got != "INVX1,INVX2,INVX4,NAND2X1,BUFX2" {
		t.Errorf("Gates not in file order: %s", got)
	}

	if _, ok := catalog.Lookup("NOR2X1"); ok {
		t.Error("Lookup of unknown gate should fail")
	}
	if n, ok := catalog.Arity("NAND2X1"); !ok || n != 2 {
		t.Errorf("Arity(NAND2X1) = %d, %v", n, ok)
	}
}

func TestParseRecordBeforeFormat(t *testing.T) {
	parser, _ := newTestParser(t, 100)

	_, err := parser.ParseString("INVX1 1.0 1 1.0 1.0\nFORMAT D0\n")
	if !errors.Is(err, ErrNoFormat) {
		t.Fatalf("Expected ErrNoFormat, got %v", err)
	}
}

func TestParseUnsupportedFormat(t *testing.T) {
	parser, logs := newTestParser(t, 100)

	_, err := parser.ParseString("FORMAT D7\nINVX1 1.0 1 1.0 1.0\n")
	if !errors.Is(err, ErrNoFormat) {
		t.Fatalf("Expected ErrNoFormat, got %v", err)
	}
	if !strings.Contains(logs.String(), "unsupported library format") {
		t.Errorf("Expected format warning, got %q", logs.String())
	}
}

func TestParseNoGates(t *testing.T) {
	parser, _ := newTestParser(t, 100)

	_, err := parser.ParseString("# nothing here\n\nFORMAT D0\n")
	if !errors.Is(err, ErrNoGates) {
		t.Fatalf("Expected ErrNoGates, got %v", err)
	}
}

func TestParseSkipsBadRecords(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"missing pin caps", "NAND2X1 1.0 2 1.0 1.0"},
		{"zero delay", "INVX8 0 1 1.0 1.0"},
		{"non-numeric delay", "INVX8 fast 1 1.0 1.0"},
		{"fractional input count", "INVX8 1.0 1.5 1.0 1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser, logs := newTestParser(t, 100)
			catalog, err := parser.ParseString("FORMAT D0\nINVX1 1.0 1 1.0 1.0\n" + tt.line + "\n")
			if err != nil {
				t.Fatalf("Failed to parse: %v", err)
			}
			if catalog.Len() != 1 {
				t.Errorf("Expected bad record to be skipped, got %d gates", catalog.Len())
			}
			if !strings.Contains(logs.String(), "level=WARN") {
				t.Errorf("Expected a warning, got %q", logs.String())
			}
		})
	}
}

func TestParseDuplicateKeepsFirst(t *testing.T) {
	parser, _ := newTestParser(t, 100)

	catalog, err := parser.ParseString("FORMAT D0\nINVX1 1.0 1 1.0 1.0\nINVX1 2.0 1 1.0 1.0\n")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	g, _ := catalog.Lookup("INVX1")
	if g.Delay != 1.0 {
		t.Errorf("Expected first definition to win, got delay %g", g.Delay)
	}
}

func TestParseFile(t *testing.T) {
	parser, _ := newTestParser(t, 100)

	path := filepath.Join(t.TempDir(), "gate.cfg")
	if err := os.WriteFile(path, []byte(testLibrary), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	catalog, err := parser.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if catalog.Len() != 5 {
		t.Errorf("Expected 5 gates, got %d", catalog.Len())
	}

	if _, err := parser.ParseFile(filepath.Join(t.TempDir(), "missing.cfg")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestNewParserRejectsLatency(t *testing.T) {
	if _, err := NewParser(0, nil); err == nil {
		t.Error("Expected error for zero max latency")
	}
}

func TestPinCap(t *testing.T) {
	g := &GateVariant{Cpin: []float64{1.5, 2.5}}
	if g.PinCap(1) != 2.5 {
		t.Errorf("PinCap(1) = %g", g.PinCap(1))
	}
	if g.PinCap(2) != 0 || g.PinCap(-1) != 0 {
		t.Error("Out of range pins should have zero capacitance")
	}
}
