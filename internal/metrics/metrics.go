// Package metrics instruments the control core's operations with
// Prometheus counters and histograms, the same pattern the rest of this
// codebase's lineage uses for its Raft and reconciliation cycles.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Control-plane operation latencies.
	BindServerDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "syncctl_bind_server_duration_seconds",
		Help: "Time taken to bind a local folder to a server.",
	})
	UnbindServerDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "syncctl_unbind_server_duration_seconds",
		Help: "Time taken to unbind a server.",
	})
	BindRootDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "syncctl_bind_root_duration_seconds",
		Help: "Time taken to bind a root.",
	})
	UnbindRootDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "syncctl_unbind_root_duration_seconds",
		Help: "Time taken to unbind a root.",
	})
	ListPendingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "syncctl_list_pending_duration_seconds",
		Help: "Time taken to select pending pair states.",
	})

	// Gauges describing the current control-plane state.
	PendingPairsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "syncctl_pending_pairs_total",
		Help: "Number of pending pair states returned by the last list_pending call (capped by its limit).",
	})
	ServerBindingsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "syncctl_server_bindings_total",
		Help: "Number of ServerBindings currently tracked.",
	})
	RootBindingsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "syncctl_root_bindings_total",
		Help: "Number of RootBindings currently tracked.",
	})

	// Root alignment.
	AlignmentCyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "syncctl_alignment_cycles_total",
		Help: "Total number of root realignment runs, including failed ones.",
	})
	AlignmentDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "syncctl_alignment_duration_seconds",
		Help: "Time taken for one root alignment cycle.",
	})
	RootsAddedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "syncctl_roots_added_total",
		Help: "Total number of roots bound locally by alignment.",
	})
	RootsRemovedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "syncctl_roots_removed_total",
		Help: "Total number of roots unbound locally by alignment.",
	})
)

func init() {
	prometheus.MustRegister(
		BindServerDuration,
		UnbindServerDuration,
		BindRootDuration,
		UnbindRootDuration,
		ListPendingDuration,
		PendingPairsTotal,
		ServerBindingsTotal,
		RootBindingsTotal,
		AlignmentCyclesTotal,
		AlignmentDuration,
		RootsAddedTotal,
		RootsRemovedTotal,
	)
}

// Handler returns the Prometheus HTTP handler for a metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer, started now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}
