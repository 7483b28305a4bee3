package fanout

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ChunHungLiu/qflow/pkg/gatelib"
)

func TestRegistryAccumulatesLoad(t *testing.T) {
	inv := &gatelib.GateVariant{Name: "INVX1", Inputs: 1, Cint: 1.5, Cpin: []float64{2}, Strength: 5}
	nand := &gatelib.GateVariant{Name: "NAND2X1", Inputs: 2, Cint: 1, Cpin: []float64{1.25, 0.75}, Strength: 4}

	r := NewRegistry()
	r.RegisterInput("n1", nand, 0)
	r.RegisterInput("n1", nand, 1)
	r.RegisterInput("n1", inv, 0)
	r.RegisterOutput("n1", inv)
	r.RegisterInput("n1", nand, 5) // no such pin

	n, ok := r.Get("n1")
	if !ok {
		t.Fatal("n1 not registered")
	}
	if n.Fanout != 4 {
		t.Errorf("Expected fanout 4, got %d", n.Fanout)
	}
	if n.Load != 5.5 {
		t.Errorf("Expected load 5.5, got %g", n.Load)
	}
	if n.Driver != "INVX1" || n.Strength != 5 {
		t.Errorf("Unexpected driver %s strength %g", n.Driver, n.Strength)
	}

	ratio, ok := n.Ratio()
	if !ok {
		t.Fatal("Expected ratio for driven net")
	}
	if ratio != n.Load/n.Strength {
		t.Errorf("Expected ratio %g, got %g", n.Load/n.Strength, ratio)
	}
}

func TestUndrivenNetHasNoRatio(t *testing.T) {
	inv := &gatelib.GateVariant{Name: "INVX1", Inputs: 1, Cint: 1, Cpin: []float64{2}, Strength: 5}

	r := NewRegistry()
	n := r.RegisterInput("a", inv, 0)
	if n.Driven() {
		t.Error("Primary input should be undriven")
	}
	if _, ok := n.Ratio(); ok {
		t.Error("Expected no ratio for undriven net")
	}
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"c", "a", "b", "a"} {
		r.RegisterOutputPin(name)
	}
	if r.Len() != 3 {
		t.Fatalf("Expected 3 nets, got %d", r.Len())
	}
	want := []string{"c", "a", "b"}
	for i, n := range r.Nets() {
		if n.Name != want[i] {
			t.Errorf("Net %d: expected %s, got %s", i, want[i], n.Name)
		}
	}
}

func TestLoadIgnoreFile(t *testing.T) {
	r := NewRegistry()
	r.RegisterOutputPin("vdd")
	r.RegisterOutputPin("gnd")
	r.RegisterOutputPin("y")

	path := filepath.Join(t.TempDir(), "ignore.txt")
	content := "vdd\n\ngnd   power ground\nmissing\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write ignore file: %v", err)
	}

	var logs bytes.Buffer
	marked, err := r.LoadIgnoreFile(path, slog.New(slog.NewTextHandler(&logs, nil)))
	if err != nil {
		t.Fatalf("LoadIgnoreFile failed: %v", err)
	}
	if marked != 2 {
		t.Errorf("Expected 2 nets marked, got %d", marked)
	}
	for name, want := range map[string]bool{"vdd": true, "gnd": true, "y": false} {
		n, _ := r.Get(name)
		if n.Ignore != want {
			t.Errorf("%s: expected ignore=%v", name, want)
		}
	}

	// "gnd   power ground" marks gnd and warns about the rest.
	if !strings.Contains(logs.String(), "extra names on ignore file line") ||
		!strings.Contains(logs.String(), "line=3") ||
		!strings.Contains(logs.String(), `extra="power ground"`) {
		t.Errorf("Expected warning for line 3, got %q", logs.String())
	}
	if strings.Count(logs.String(), "level=WARN") != 1 {
		t.Errorf("Expected exactly one warning, got %q", logs.String())
	}

	if _, err := r.LoadIgnoreFile(filepath.Join(t.TempDir(), "absent"), nil); err == nil {
		t.Error("Expected error for missing ignore file")
	}
}

func TestSummarize(t *testing.T) {
	weak := &gatelib.GateVariant{Name: "INVX1", Inputs: 1, Cint: 1, Cpin: []float64{1}, Strength: 2}
	strong := &gatelib.GateVariant{Name: "INVX4", Inputs: 1, Cint: 1, Cpin: []float64{1}, Strength: 8}

	r := NewRegistry()
	r.RegisterOutput("a", strong)
	for i := 0; i < 5; i++ {
		r.RegisterInput("a", weak, 0)
	}
	r.RegisterOutput("b", weak)
	for i := 0; i < 3; i++ {
		r.RegisterInput("b", weak, 0)
	}
	// Highest fanout but ignored.
	r.RegisterOutput("vdd", weak)
	for i := 0; i < 10; i++ {
		r.RegisterInput("vdd", weak, 0)
	}
	r.MarkIgnored("vdd")
	// Undriven.
	r.RegisterInput("in", weak, 0)

	s := r.Summarize()
	if s.Nets != 4 || s.Ignored != 1 {
		t.Errorf("Expected 4 nets and 1 ignored, got %d and %d", s.Nets, s.Ignored)
	}
	if s.TopFanout != 5 || s.TopFanoutNet != "a" || s.TopFanoutDriver != "INVX4" || s.TopFanoutStrength != 8 {
		t.Errorf("Unexpected top fanout %+v", s)
	}
	if s.TopLoad != 6 || s.TopLoadNet != "a" {
		t.Errorf("Expected top load 6 on a, got %g on %s", s.TopLoad, s.TopLoadNet)
	}
	if s.TopRatio != 2 || s.TopRatioNet != "b" || s.TopRatioDriver != "INVX1" {
		t.Errorf("Expected top ratio 2 on b, got %g on %s", s.TopRatio, s.TopRatioNet)
	}
}

func TestDriveHistogram(t *testing.T) {
	h := NewDriveHistogram()
	h.Tally("1")
	h.Tally("1")
	h.Tally("2")
	h.Swap("1", "4")
	h.AddOut("8")

	want := []string{"1", "2", "4", "8"}
	got := h.Suffixes()
	if len(got) != len(want) {
		t.Fatalf("Expected buckets %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Bucket %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	tests := []struct {
		suffix  string
		in, out int
	}{
		{"1", 2, 1},
		{"2", 1, 1},
		{"4", 0, 1},
		{"8", 0, 1},
	}
	for _, tt := range tests {
		if h.In(tt.suffix) != tt.in || h.Out(tt.suffix) != tt.out {
			t.Errorf("%s: expected in=%d out=%d, got in=%d out=%d",
				tt.suffix, tt.in, tt.out, h.In(tt.suffix), h.Out(tt.suffix))
		}
	}
}
