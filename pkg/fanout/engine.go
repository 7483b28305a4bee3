// Package fanout resizes the gates of a mapped BLIF netlist to match the
// capacitive load on their outputs.
//
// A run has two passes over the same input. The scan pass builds the net
// registry: for every net it accumulates the Cint of its driver and the
// Cpin of every load pin. The rewrite pass re-reads the input and copies it
// to the output, replacing the cell name of each instance whose load exceeds
// its strength with the weakest family member that can drive it. When no
// family member is strong enough, the output net is renamed and a buffer
// is inserted to drive the original net.
//
// The change count returned by Run is meant to be driven to zero by
// re-running the pass on its own output.
package fanout

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/ChunHungLiu/qflow/internal/metrics"
	"github.com/ChunHungLiu/qflow/pkg/gatelib"
)

// Result describes a completed run.
type Result struct {
	Changes      int // substitutions plus buffer insertions
	Buffers      int
	Overloads    int
	UnknownCells int
	Malformed    int
	Summary      Summary
	Drives       *DriveHistogram
}

// Engine holds the state of one run. Create a new Engine for every run.
type Engine struct {
	catalog  *gatelib.Catalog
	resolver *gatelib.Resolver
	cfg      *Config
	logger   *slog.Logger
	metrics  *metrics.Registry

	nets        *Registry
	drives      *DriveHistogram
	bufferCells map[string]bool

	overloads    int
	buffers      int
	unknownCells int
	malformed    int
}

// NewEngine creates an engine for one run over catalog. logger and m may be
// nil.
func NewEngine(catalog *gatelib.Catalog, cfg *Config, logger *slog.Logger, m *metrics.Registry) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if m == nil {
		m = metrics.NewRegistry()
	}

	resolver := gatelib.NewResolver(catalog, cfg.Separator, logger)
	family, err := resolver.Family(cfg.Buffer)
	if err != nil {
		return nil, fmt.Errorf("fanout: buffer cell %s: %w", cfg.Buffer, err)
	}
	bufferCells := make(map[string]bool, len(family))
	for _, g := range family {
		if g.Inputs < 1 {
			return nil, fmt.Errorf("fanout: buffer cell %s has no input pin", g.Name)
		}
		bufferCells[g.Name] = true
	}

	m.Gates.Set(float64(catalog.Len()))

	return &Engine{
		catalog:     catalog,
		resolver:    resolver,
		cfg:         cfg,
		logger:      logger,
		metrics:     m,
		nets:        NewRegistry(),
		drives:      NewDriveHistogram(),
		bufferCells: bufferCells,
	}, nil
}

// Nets returns the net registry built by Scan.
func (e *Engine) Nets() *Registry {
	return e.nets
}

// Resolver returns the family resolver used by the run.
func (e *Engine) Resolver() *gatelib.Resolver {
	return e.resolver
}

// ApplyIgnoreFile marks the nets listed in the configured ignore file. A
// missing or unreadable file and malformed lines are only warnings.
func (e *Engine) ApplyIgnoreFile() {
	if e.cfg.IgnoreFile == "" {
		return
	}
	marked, err := e.nets.LoadIgnoreFile(e.cfg.IgnoreFile, e.logger)
	if err != nil {
		e.logger.Warn("couldn't read ignore file", "path", e.cfg.IgnoreFile, "error", err)
		return
	}
	e.logger.Debug("ignore file applied", "path", e.cfg.IgnoreFile, "nets", marked)
}

// Run performs the scan pass, applies the ignore file, rewinds in and
// performs the rewrite pass into out.
func (e *Engine) Run(in io.ReadSeeker, out io.Writer) (*Result, error) {
	if err := e.Scan(in); err != nil {
		return nil, err
	}
	e.ApplyIgnoreFile()

	summary := e.nets.Summarize()
	e.logger.Debug("scan complete", "nets", summary.Nets, "ignored", summary.Ignored)

	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("fanout: rewind input: %w", err)
	}

	changes, err := e.Rewrite(in, out)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Changes:      changes,
		Buffers:      e.buffers,
		Overloads:    e.overloads,
		UnknownCells: e.unknownCells,
		Malformed:    e.malformed,
		Summary:      summary,
		Drives:       e.drives,
	}
	e.record(result)
	return result, nil
}

func (e *Engine) record(r *Result) {
	m := e.metrics
	m.ChangesTotal.Add(float64(r.Changes))
	m.BuffersInsertedTotal.Add(float64(r.Buffers))
	m.OverloadsTotal.Add(float64(r.Overloads))
	m.UnknownCellsTotal.Add(float64(r.UnknownCells))
	m.MalformedTotal.Add(float64(r.Malformed))
	m.Nets.Set(float64(r.Summary.Nets))
	m.IgnoredNets.Set(float64(r.Summary.Ignored))
	m.TopFanout.Set(float64(r.Summary.TopFanout))
	m.TopLoad.Set(r.Summary.TopLoad)
	m.TopRatio.Set(r.Summary.TopRatio)
	for _, suffix := range r.Drives.Suffixes() {
		m.DriveTypes.WithLabelValues("in", suffix).Set(float64(r.Drives.In(suffix)))
		m.DriveTypes.WithLabelValues("out", suffix).Set(float64(r.Drives.Out(suffix)))
	}
}

// forEachLine calls fn for every physical line of r, newline included.
func forEachLine(r io.Reader, fn func(line string, lineNo int)) error {
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			lineNo++
			fn(line, lineNo)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("fanout: read netlist: %w", err)
		}
	}
}
