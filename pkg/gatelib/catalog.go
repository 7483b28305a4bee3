package gatelib

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFormat is returned when a gate record appears before a
	// supported FORMAT directive.
	ErrNoFormat = errors.New("gatelib: gate record before FORMAT directive")

	// ErrNoGates is returned when a library yields no usable gate records.
	ErrNoGates = errors.New("gatelib: no gates found")
)

// FormatD0 is the only supported table format.
const FormatD0 = "D0"

// GateVariant is one drive-strength variant of a gate family.
type GateVariant struct {
	Name   string
	Delay  float64   // ps per fF of load
	Inputs int       // number of input pins; the single output is implied
	Cint   float64   // output-stage capacitance (fF)
	Cpin   []float64 // input pin capacitances in pin order (fF)

	// Strength is MaxLatency / Delay, the largest load this variant can
	// drive within the latency budget.
	Strength float64
}

// PinCap returns the capacitance of input pin i, or 0 when the variant has
// no such pin.
func (g *GateVariant) PinCap(i int) float64 {
	if i < 0 || i >= len(g.Cpin) {
		return 0
	}
	return g.Cpin[i]
}

// Catalog holds the gate variants of one library file in file order.
// It is immutable once built.
type Catalog struct {
	gates      []*GateVariant
	byName     map[string]*GateVariant
	maxLatency float64
}

func newCatalog(maxLatency float64) *Catalog {
	return &Catalog{
		byName:     make(map[string]*GateVariant),
		maxLatency: maxLatency,
	}
}

// add registers a variant. Duplicate names keep the first definition.
func (c *Catalog) add(g *GateVariant) bool {
	if _, exists := c.byName[g.Name]; exists {
		return false
	}
	c.gates = append(c.gates, g)
	c.byName[g.Name] = g
	return true
}

// Lookup returns the variant with exactly the given name.
func (c *Catalog) Lookup(name string) (*GateVariant, bool) {
	g, ok := c.byName[name]
	return g, ok
}

// Arity returns the number of input pins of the named cell.
func (c *Catalog) Arity(name string) (int, bool) {
	g, ok := c.byName[name]
	if !ok {
		return 0, false
	}
	return g.Inputs, true
}

// Gates returns all variants in file order.
func (c *Catalog) Gates() []*GateVariant {
	return c.gates
}

// Len returns the number of variants.
func (c *Catalog) Len() int {
	return len(c.gates)
}

// MaxLatency returns the latency budget the strengths were computed with.
func (c *Catalog) MaxLatency() float64 {
	return c.maxLatency
}

func (r *gateRecord) variant(maxLatency float64) (*GateVariant, error) {
	if r.Delay <= 0 {
		return nil, fmt.Errorf("gate %s: delay must be positive, got %g", r.Name, r.Delay)
	}
	if r.Inputs < 0 {
		return nil, fmt.Errorf("gate %s: negative input count %d", r.Name, r.Inputs)
	}
	if len(r.Cpin) < r.Inputs {
		return nil, fmt.Errorf("gate %s: %d inputs but only %d pin capacitances",
			r.Name, r.Inputs, len(r.Cpin))
	}
	cpin := make([]float64, r.Inputs)
	copy(cpin, r.Cpin)
	return &GateVariant{
		Name:     r.Name,
		Delay:    r.Delay,
		Inputs:   r.Inputs,
		Cint:     r.Cint,
		Cpin:     cpin,
		Strength: maxLatency / r.Delay,
	}, nil
}
