package gatelib

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

var (
	// ErrUnclassified is returned when a cell name carries no drive-strength
	// suffix, so its family cannot be determined.
	ErrUnclassified = errors.New("gatelib: cannot classify gate")

	// ErrUnknownFamily is returned when no catalog variant belongs to the
	// family of a reference name.
	ErrUnknownFamily = errors.New("gatelib: no gates in family")
)

// OverloadError reports that no family member is strong enough for a load.
// Strongest is the best-effort fallback.
type OverloadError struct {
	Load      float64
	Strongest *GateVariant
}

// Ratio is how many times the load exceeds the strongest variant.
func (e *OverloadError) Ratio() float64 {
	return e.Load / e.Strongest.Strength
}

func (e *OverloadError) Error() string {
	return fmt.Sprintf("gatelib: load of %g is %g times greater than strongest gate %s",
		e.Load, e.Ratio(), e.Strongest.Name)
}

// Resolver groups catalog variants into families by name suffix.
//
// With a separator, the suffix is the text after its last occurrence
// (sky130_fd_sc_hd__inv_4 with "_" gives "4"). Without one, the suffix is
// the trailing run of decimal digits (INVX4 gives "4").
type Resolver struct {
	catalog   *Catalog
	separator string
	logger    *slog.Logger
}

// NewResolver creates a resolver over catalog.
func NewResolver(catalog *Catalog, separator string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{catalog: catalog, separator: separator, logger: logger}
}

// Separator returns the configured suffix separator (may be empty).
func (r *Resolver) Separator() string {
	return r.separator
}

// SuffixOf returns the drive-strength suffix of name. ok is false when
// the name has no suffix.
func (r *Resolver) SuffixOf(name string) (suffix string, ok bool) {
	if r.separator != "" {
		idx := strings.LastIndex(name, r.separator)
		if idx < 0 {
			return "", false
		}
		suffix = name[idx+len(r.separator):]
		return suffix, suffix != ""
	}

	end := len(name)
	start := end
	for start > 0 && name[start-1] >= '0' && name[start-1] <= '9' {
		start--
	}
	if start == end {
		return "", false
	}
	return name[start:], true
}

// familyPrefix returns name with its suffix removed. The separator, if
// any, stays in the prefix.
func (r *Resolver) familyPrefix(name string) (string, bool) {
	suffix, ok := r.SuffixOf(name)
	if !ok {
		return "", false
	}
	return name[:len(name)-len(suffix)], true
}

// Family returns the variants sharing the family of name, in catalog order.
func (r *Resolver) Family(name string) ([]*GateVariant, error) {
	prefix, ok := r.familyPrefix(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnclassified, name)
	}
	var family []*GateVariant
	for _, g := range r.catalog.gates {
		if !strings.HasPrefix(g.Name, prefix) {
			continue
		}
		if p, ok := r.familyPrefix(g.Name); ok && p == prefix {
			family = append(family, g)
		}
	}
	if len(family) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFamily, name)
	}
	return family, nil
}

// BestFit picks the weakest family member of name whose strength is at
// least load. Equal strengths keep the first variant in catalog order.
//
// When no member qualifies, BestFit returns the strongest member together
// with an *OverloadError.
func (r *Resolver) BestFit(name string, load float64) (*GateVariant, error) {
	family, err := r.Family(name)
	if err != nil {
		return nil, err
	}

	var best, strongest *GateVariant
	for _, g := range family {
		if strongest == nil || g.Strength > strongest.Strength {
			strongest = g
		}
		if g.Strength >= load && (best == nil || g.Strength < best.Strength) {
			best = g
		}
	}
	if best != nil {
		return best, nil
	}

	overload := &OverloadError{Load: load, Strongest: strongest}
	r.logger.Warn("load exceeds strongest gate",
		"load", load, "ratio", overload.Ratio(), "gate", strongest.Name)
	return strongest, overload
}

// Strongest returns the family member of name with the maximal strength.
func (r *Resolver) Strongest(name string) (*GateVariant, error) {
	family, err := r.Family(name)
	if err != nil {
		return nil, err
	}
	strongest := family[0]
	for _, g := range family[1:] {
		if g.Strength > strongest.Strength {
			strongest = g
		}
	}
	return strongest, nil
}
