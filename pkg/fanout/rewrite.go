package fanout

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ChunHungLiu/qflow/pkg/blif"
	"github.com/ChunHungLiu/qflow/pkg/gatelib"
)

// instance is a gate statement held back until it is complete.
type instance struct {
	cell     blif.Token
	output   blif.Token
	complete bool
}

// rewriter copies lines to the output. Lines belonging to an open instance
// are held in pending so the cell and output-net tokens can be edited in
// place before they are written.
type rewriter struct {
	e       *Engine
	w       *bufio.Writer
	machine *blif.Machine
	pending []string
	inst    *instance
	created map[string]bool
	changes int
}

// Rewrite copies the netlist from r to w, resizing gates against the
// registry built by Scan. It returns the number of changes. The registry is
// not modified.
func (e *Engine) Rewrite(r io.Reader, w io.Writer) (int, error) {
	rw := &rewriter{
		e:       e,
		w:       bufio.NewWriter(w),
		machine: blif.NewMachine(e.catalog.Arity),
		created: make(map[string]bool),
	}

	if err := forEachLine(r, func(line string, _ int) { rw.line(line) }); err != nil {
		return rw.changes, err
	}
	rw.machine.Finish()
	rw.flush()

	if err := rw.w.Flush(); err != nil {
		return rw.changes, fmt.Errorf("fanout: write netlist: %w", err)
	}
	return rw.changes, nil
}

func (rw *rewriter) line(line string) {
	tokens := blif.Tokenize(line, 0)
	if blif.FirstIsDirective(tokens) {
		rw.flush()
	}

	idx := len(rw.pending)
	rw.pending = append(rw.pending, line)
	for _, tok := range tokens {
		tok.Line = idx
		for _, ev := range rw.machine.Step(tok) {
			switch ev.Kind {
			case blif.EventGateStart:
				rw.inst = &instance{cell: ev.Token}
			case blif.EventOutputNet:
				if rw.inst != nil {
					rw.inst.output = ev.Token
					rw.inst.complete = true
				}
			}
		}
	}

	// A lone .gate keeps the line pending: the cell name may follow on a
	// continuation line.
	if !rw.machine.InInstance() && rw.machine.State() != blif.StateGateName {
		rw.flush()
	}
}

func (rw *rewriter) flush() {
	if len(rw.pending) == 0 {
		return
	}
	var bufferLine string
	if rw.inst != nil && rw.inst.complete {
		bufferLine = rw.resize(rw.inst)
	}
	for _, l := range rw.pending {
		rw.w.WriteString(l)
	}
	if bufferLine != "" {
		if !strings.HasSuffix(rw.pending[len(rw.pending)-1], "\n") {
			rw.w.WriteString("\n")
		}
		rw.w.WriteString(bufferLine)
	}
	rw.pending = rw.pending[:0]
	rw.inst = nil
}

// requiredLoad returns the load a net puts on its driver, not counting the
// driver's own Cint, and false when the present driver is adequate.
func (e *Engine) requiredLoad(n *Net, cint float64) (float64, bool) {
	pins := n.Load - cint
	if n.OutputPin {
		return pins + e.cfg.MaxOutputCap + e.cfg.WireCap, true
	}
	if ratio, ok := n.Ratio(); ok && ratio > 1.0 {
		return pins + e.cfg.WireCap, true
	}
	return 0, false
}

// fit picks the weakest member of the family of ref that drives pins plus
// its own Cint. cint is the Cint assumed for the first try. The choice is
// stable: fitting again with the chosen variant's Cint returns it.
func (e *Engine) fit(ref string, pins, cint float64) (*gatelib.GateVariant, error) {
	var choice *gatelib.GateVariant
	for range e.catalog.Len() {
		next, err := e.resolver.BestFit(ref, pins+cint)
		if err != nil {
			return next, err
		}
		choice = next
		if next.Cint == cint {
			break
		}
		cint = next.Cint
	}
	return choice, nil
}

// resize edits the pending lines of inst and returns a buffer statement to
// append, if one is needed.
func (rw *rewriter) resize(inst *instance) string {
	e := rw.e
	driver, ok := e.catalog.Lookup(inst.cell.Text)
	if !ok {
		return ""
	}
	net, ok := e.nets.Get(inst.output.Text)
	if !ok || net.Ignore || !net.Driven() {
		return ""
	}
	required, ok := e.requiredLoad(net, driver.Cint)
	if !ok {
		return ""
	}

	choice, err := e.fit(driver.Name, required, driver.Cint)
	var overload *gatelib.OverloadError
	switch {
	case err == nil:
		rw.substitute(inst, driver, choice)
		return ""

	case errors.As(err, &overload):
		e.overloads++
		if e.bufferCells[driver.Name] {
			// Buffer trees are left to placement tools.
			rw.substitute(inst, driver, overload.Strongest)
			return ""
		}
		return rw.insertBuffer(inst, net, driver, required)

	default:
		e.logger.Warn("cannot resize gate", "cell", driver.Name, "net", net.Name, "error", err)
		return ""
	}
}

// insertBuffer renames the output net of inst, sizes a buffer to drive the
// original net and resizes the driver to feed the buffer. required excludes
// the Cint of driver. An overloaded buffer is still inserted; the net was
// already counted as overloaded.
func (rw *rewriter) insertBuffer(inst *instance, net *Net, driver *gatelib.GateVariant, required float64) string {
	e := rw.e
	var overload *gatelib.OverloadError
	buffer, err := e.fit(e.cfg.Buffer, required, 0)
	if err != nil && !errors.As(err, &overload) {
		e.logger.Warn("no buffer cell available", "buffer", e.cfg.Buffer, "error", err)
		if strongest, err := e.resolver.Strongest(driver.Name); err == nil {
			rw.substitute(inst, driver, strongest)
		}
		return ""
	}

	renamed := rw.bufferedName(net.Name)
	rw.replace(inst.output, renamed)

	// An overloaded fit returns the strongest variant.
	sized, _ := e.fit(driver.Name, buffer.PinCap(0)+e.cfg.WireCap, driver.Cint)
	if sized == nil {
		sized = driver
	}
	rw.substitute(inst, driver, sized)

	rw.changes++
	e.buffers++
	if suffix, ok := e.resolver.SuffixOf(buffer.Name); ok {
		e.drives.AddOut(suffix)
	}
	e.logger.Debug("buffer inserted", "net", net.Name, "buffer", buffer.Name,
		"driver", sized.Name, "renamed", renamed)

	return fmt.Sprintf(".gate %s %s=%s %s=%s\n",
		buffer.Name, e.cfg.BufferIn, renamed, e.cfg.BufferOut, net.Name)
}

// substitute replaces the cell name of inst when to differs from from.
// Edits on the same line must run right to left, so callers rename the
// output net first.
func (rw *rewriter) substitute(inst *instance, from, to *gatelib.GateVariant) {
	if from.Name == to.Name {
		return
	}
	rw.replace(inst.cell, to.Name)
	rw.changes++

	e := rw.e
	fromSuffix, ok1 := e.resolver.SuffixOf(from.Name)
	toSuffix, ok2 := e.resolver.SuffixOf(to.Name)
	if ok1 && ok2 {
		e.drives.Swap(fromSuffix, toSuffix)
	}
	e.logger.Debug("gate changed", "from", from.Name, "to", to.Name, "line", inst.cell.Line)
}

func (rw *rewriter) replace(tok blif.Token, text string) {
	line := rw.pending[tok.Line]
	rw.pending[tok.Line] = line[:tok.Start] + text + line[tok.End:]
}

// bufferedName derives an unused net name for the driver side of a buffer.
func (rw *rewriter) bufferedName(name string) string {
	for n := 0; ; n++ {
		candidate := bufferedNetName(name, n)
		if _, exists := rw.e.nets.Get(candidate); !exists && !rw.created[candidate] {
			rw.created[candidate] = true
			return candidate
		}
	}
}

// bufferedNetName appends "_buf" (and n when positive) to name, before a
// trailing bus index if there is one: data[3] becomes data_buf[3].
func bufferedNetName(name string, n int) string {
	tag := "_buf"
	if n > 0 {
		tag = fmt.Sprintf("_buf%d", n)
	}
	if i := strings.LastIndex(name, "["); i > 0 && strings.HasSuffix(name, "]") {
		return name[:i] + tag + name[i:]
	}
	return name + tag
}
