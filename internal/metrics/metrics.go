// Package metrics collects per-run counters of a gate-resizing pass and
// exports them in the Prometheus text format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the metrics of one run. Each run gets its own registry.
type Registry struct {
	registry *prometheus.Registry

	ChangesTotal         prometheus.Counter
	BuffersInsertedTotal prometheus.Counter
	OverloadsTotal       prometheus.Counter
	UnknownCellsTotal    prometheus.Counter
	MalformedTotal       prometheus.Counter

	Nets        prometheus.Gauge
	IgnoredNets prometheus.Gauge
	Gates       prometheus.Gauge
	TopFanout   prometheus.Gauge
	TopLoad     prometheus.Gauge
	TopRatio    prometheus.Gauge

	DriveTypes *prometheus.GaugeVec
}

// NewRegistry creates a registry with all run metrics registered.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	factory := promauto.With(r.registry)

	r.ChangesTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "blifanout_changes_total",
		Help: "Gate substitutions and buffer insertions made by the rewrite pass",
	})
	r.BuffersInsertedTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "blifanout_buffers_inserted_total",
		Help: "Buffer instances inserted for overloaded nets",
	})
	r.OverloadsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "blifanout_overloads_total",
		Help: "Required loads that exceeded the strongest gate of a family",
	})
	r.UnknownCellsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "blifanout_unknown_cells_total",
		Help: "Gate instances whose cell is missing from the library",
	})
	r.MalformedTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "blifanout_malformed_instances_total",
		Help: "Gate instances with missing or extra pin connections",
	})

	r.Nets = factory.NewGauge(prometheus.GaugeOpts{
		Name: "blifanout_nets",
		Help: "Distinct nets seen by the scan pass",
	})
	r.IgnoredNets = factory.NewGauge(prometheus.GaugeOpts{
		Name: "blifanout_ignored_nets",
		Help: "Nets excluded from resizing by the ignore list",
	})
	r.Gates = factory.NewGauge(prometheus.GaugeOpts{
		Name: "blifanout_library_gates",
		Help: "Gate variants loaded from the library",
	})
	r.TopFanout = factory.NewGauge(prometheus.GaugeOpts{
		Name: "blifanout_top_fanout",
		Help: "Largest fanout of a driven net",
	})
	r.TopLoad = factory.NewGauge(prometheus.GaugeOpts{
		Name: "blifanout_top_load_ff",
		Help: "Largest total load capacitance of a driven net",
	})
	r.TopRatio = factory.NewGauge(prometheus.GaugeOpts{
		Name: "blifanout_top_ratio",
		Help: "Largest load to drive-strength ratio of a driven net",
	})

	r.DriveTypes = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "blifanout_drive_type_gates",
			Help: "Gate instances per drive-strength suffix",
		},
		[]string{"phase", "suffix"}, // phase: in, out
	)

	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all metrics to path in the text exposition format,
// suitable for the node exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
