package fanout

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ChunHungLiu/qflow/pkg/gatelib"
)

// Net is one net of the netlist with its accumulated load.
type Net struct {
	Name      string
	Ignore    bool    // excluded from resizing (power, ground, static nets)
	Driver    string  // cell name of the driving gate, empty if undriven
	Strength  float64 // drive strength of Driver, 0 if undriven
	OutputPin bool    // module output; must also drive an external load
	Fanout    int     // number of gate input pins on the net
	Load      float64 // driver Cint plus the Cpin of every load pin (fF)
}

// Driven reports whether a driver with known strength was registered.
func (n *Net) Driven() bool {
	return n.Strength != 0
}

// Ratio returns Load / Strength. ok is false for undriven nets, where the
// ratio is undefined.
func (n *Net) Ratio() (ratio float64, ok bool) {
	if !n.Driven() {
		return 0, false
	}
	return n.Load / n.Strength, true
}

// Registry accumulates nets in first-seen order.
type Registry struct {
	nets  []*Net
	index map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

func (r *Registry) lookupOrAdd(name string) *Net {
	if i, ok := r.index[name]; ok {
		return r.nets[i]
	}
	net := &Net{Name: name}
	r.index[name] = len(r.nets)
	r.nets = append(r.nets, net)
	return net
}

// Get returns the named net.
func (r *Registry) Get(name string) (*Net, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.nets[i], true
}

// Nets returns all nets in first-seen order.
func (r *Registry) Nets() []*Net {
	return r.nets
}

// Len returns the number of nets.
func (r *Registry) Len() int {
	return len(r.nets)
}

// RegisterOutput records gate as the driver of net. A second driver
// replaces the first and adds its Cint; parallel drivers are assumed.
func (r *Registry) RegisterOutput(net string, gate *gatelib.GateVariant) *Net {
	n := r.lookupOrAdd(net)
	n.Driver = gate.Name
	n.Strength = gate.Strength
	n.Load += gate.Cint
	return n
}

// RegisterInput records input pin of gate as a load on net.
func (r *Registry) RegisterInput(net string, gate *gatelib.GateVariant, pin int) *Net {
	n := r.lookupOrAdd(net)
	n.Load += gate.PinCap(pin)
	n.Fanout++
	return n
}

// RegisterOutputPin marks net as a module output.
func (r *Registry) RegisterOutputPin(net string) *Net {
	n := r.lookupOrAdd(net)
	n.OutputPin = true
	return n
}

// MarkIgnored excludes an existing net from resizing. It returns false
// when the net is unknown.
func (r *Registry) MarkIgnored(name string) bool {
	n, ok := r.Get(name)
	if !ok {
		return false
	}
	n.Ignore = true
	return true
}

// LoadIgnoreFile marks the nets listed in path, one name per line, as
// ignored. Names that match no net are skipped. A line holding more than
// one name is logged and only its first name is used. It returns the
// number of nets marked. logger may be nil.
func (r *Registry) LoadIgnoreFile(path string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("fanout: open ignore file: %w", err)
	}
	defer file.Close()

	marked := 0
	lineNo := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) > 1 {
			logger.Warn("extra names on ignore file line", "path", path, "line", lineNo,
				"net", fields[0], "extra", strings.Join(fields[1:], " "))
		}
		if r.MarkIgnored(fields[0]) {
			marked++
		}
	}
	if err := scanner.Err(); err != nil {
		return marked, fmt.Errorf("fanout: read ignore file: %w", err)
	}
	return marked, nil
}

// Summary holds the extreme values over all driven, non-ignored nets.
type Summary struct {
	TopFanout         int
	TopFanoutNet      string
	TopFanoutDriver   string
	TopFanoutStrength float64

	TopLoad       float64
	TopLoadNet    string
	TopLoadDriver string

	TopRatio       float64
	TopRatioNet    string
	TopRatioDriver string

	Nets    int
	Ignored int
}

// Summarize scans the registry once. Ties go to the later net.
func (r *Registry) Summarize() Summary {
	var s Summary
	s.Nets = len(r.nets)
	for _, n := range r.nets {
		if n.Ignore {
			s.Ignored++
			continue
		}
		ratio, ok := n.Ratio()
		if !ok {
			continue
		}
		if n.Fanout >= s.TopFanout {
			s.TopFanout = n.Fanout
			s.TopFanoutNet = n.Name
			s.TopFanoutDriver = n.Driver
			s.TopFanoutStrength = n.Strength
		}
		if ratio >= s.TopRatio {
			s.TopRatio = ratio
			s.TopRatioNet = n.Name
			s.TopRatioDriver = n.Driver
		}
		if n.Load >= s.TopLoad {
			s.TopLoad = n.Load
			s.TopLoadNet = n.Name
			s.TopLoadDriver = n.Driver
		}
	}
	return s
}
