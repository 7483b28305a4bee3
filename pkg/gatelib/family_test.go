package gatelib

import (
	"errors"
	"testing"
)

func mustCatalog(t *testing.T, maxLatency float64, library string) *Catalog {
	t.Helper()
	parser, _ := newTestParser(t, maxLatency)
	catalog, err := parser.ParseString(library)
	if err != nil {
		t.Fatalf("Failed to parse library: %v", err)
	}
	return catalog
}

func TestSuffixOf(t *testing.T) {
	tests := []struct {
		separator string
		name      string
		want      string
		wantOK    bool
	}{
		{"", "INVX1", "1", true},
		{"", "NAND2X12", "12", true},
		{"", "INV", "", false},
		{"", "7", "7", true},
		{"_", "sky130_fd_sc_hd__inv_4", "4", true},
		{"__", "sky130_fd_sc_hd__inv_4", "inv_4", true},
		{"_", "INVX1", "", false},
		{"_", "INV_", "", false},
		{"X", "NAND2X4", "4", true},
	}

	for _, tt := range tests {
		r := NewResolver(newCatalog(100), tt.separator, nil)
		if r.Separator() != tt.separator {
			t.Errorf("Separator() = %q, want %q", r.Separator(), tt.separator)
		}
		got, ok := r.SuffixOf(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("SuffixOf(%q) with separator %q = %q, %v; want %q, %v",
				tt.name, tt.separator, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFamilyMembership(t *testing.T) {
	catalog := mustCatalog(t, 100, `FORMAT D0
INVX1   1.0  1 1.0 1.0
INVXL1  1.0  1 1.0 1.0
INVX2   0.5  1 1.0 1.0
NAND2X1 1.25 2 0.9 1.1 1.05
INVX4   0.25 1 1.0 1.0
`)
	r := NewResolver(catalog, "", nil)

	family, err := r.Family("INVX2")
	if err != nil {
		t.Fatalf("Family failed: %v", err)
	}
	var names []string
	for _, g := range family {
		names = append(names, g.Name)
	}
	want := []string{"INVX1", "INVX2", "INVX4"}
	if len(names) != len(want) {
		t.Fatalf("Family(INVX2) = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Family(INVX2)[%d] = %s, want %s", i, names[i], want[i])
		}
	}

	if _, err := r.Family("INV"); !errors.Is(err, ErrUnclassified) {
		t.Errorf("Expected ErrUnclassified, got %v", err)
	}
	if _, err := r.Family("NOR2X1"); !errors.Is(err, ErrUnknownFamily) {
		t.Errorf("Expected ErrUnknownFamily, got %v", err)
	}
}

func TestBestFit(t *testing.T) {
	// Strengths with MaxLatency 10: INVX1=10, INVX2=INVX3=20, INVX4=40
	catalog := mustCatalog(t, 10, `FORMAT D0
INVX1 1.0  1 1.0 1.0
INVX4 0.25 1 1.0 1.0
INVX2 0.5  1 1.0 1.0
INVX3 0.5  1 1.0 1.0
`)
	r := NewResolver(catalog, "", nil)

	tests := []struct {
		load     float64
		want     string
		overload bool
	}{
		{0, "INVX1", false},
		{10, "INVX1", false},
		{10.5, "INVX2", false}, // INVX3 has equal strength but comes later
		{20, "INVX2", false},
		{39.9, "INVX4", false},
		{40, "INVX4", false},
		{41, "INVX4", true},
	}

	for _, tt := range tests {
		got, err := r.BestFit("INVX1", tt.load)
		var overload *OverloadError
		isOverload := errors.As(err, &overload)
		if err != nil && !isOverload {
			t.Fatalf("BestFit(%g) unexpected error: %v", tt.load, err)
		}
		if got == nil || got.Name != tt.want {
			t.Errorf("BestFit(%g) = %v, want %s", tt.load, got, tt.want)
		}
		if isOverload != tt.overload {
			t.Errorf("BestFit(%g) overload = %v, want %v", tt.load, isOverload, tt.overload)
		}
		if isOverload && overload.Strongest.Name != "INVX4" {
			t.Errorf("Overload fallback = %s, want INVX4", overload.Strongest.Name)
		}
	}
}

func TestBestFitScenario(t *testing.T) {
	// A net driven by INVX1 with three loads of 2.0 needs 1.0 + 6.0 = 7.0.
	catalog := mustCatalog(t, 5, `FORMAT D0
INVX1 1.0  1 1.0 2.0
INVX4 0.25 1 1.0 2.0
`)
	r := NewResolver(catalog, "", nil)

	got, err := r.BestFit("INVX1", 7.0)
	if err != nil {
		t.Fatalf("BestFit failed: %v", err)
	}
	if got.Name != "INVX4" {
		t.Errorf("Expected INVX4, got %s", got.Name)
	}
}

func TestOverloadError(t *testing.T) {
	err := &OverloadError{Load: 80, Strongest: &GateVariant{Name: "INVX4", Strength: 40}}
	if err.Ratio() != 2 {
		t.Errorf("Ratio = %g, want 2", err.Ratio())
	}
	want := "gatelib: load of 80 is 2 times greater than strongest gate INVX4"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestStrongest(t *testing.T) {
	catalog := mustCatalog(t, 100, `FORMAT D0
buf_1 1.0  1 1.0 1.0
buf_8 0.2  1 1.0 1.0
buf_16 0.2 1 1.0 1.0
buf_2 0.5  1 1.0 1.0
`)
	r := NewResolver(catalog, "_", nil)

	got, err := r.Strongest("buf_2")
	if err != nil {
		t.Fatalf("Strongest failed: %v", err)
	}
	if got.Name != "buf_8" {
		t.Errorf("Expected first maximal variant buf_8, got %s", got.Name)
	}

	if _, err := r.Strongest("inv_1"); !errors.Is(err, ErrUnknownFamily) {
		t.Errorf("Expected ErrUnknownFamily, got %v", err)
	}
}
