// Package metrics exposes the paging subsystem's counters and gauges
// for external scraping. biscuit itself has no metrics layer; this
// package is an out-of-pack ecosystem addition (Prometheus's
// client_golang) wired in because the domain stack calls for an
// observable paging subsystem and nothing in the retrieved corpus
// demonstrates one.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles the subsystem's instruments. A nil *Registry is
// valid and every method on it is a no-op, so callers that never wire
// up an HTTP scrape endpoint (tests, cmd/vmtrace runs without
// -metrics-addr) can pass a nil *Registry around freely.
type Registry struct {
	PageFaults    *prometheus.CounterVec
	Evictions     *prometheus.CounterVec
	SwapReads     prometheus.Counter
	SwapWrites    prometheus.Counter
	ResidentPages prometheus.Gauge
}

// NewRegistry constructs and registers the subsystem's instruments
// against reg. Passing prometheus.NewRegistry() keeps tests isolated
// from the global default registry.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		PageFaults: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "sv39vm",
			Name:      "page_faults_total",
			Help:      "Page faults handled, labeled by resolution kind.",
		}, []string{"kind"}),
		Evictions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "sv39vm",
			Name:      "evictions_total",
			Help:      "Pages evicted from residency, labeled by replacement policy.",
		}, []string{"policy"}),
		SwapReads: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "sv39vm",
			Name:      "swap_reads_total",
			Help:      "Pages read back in from a swap file.",
		}),
		SwapWrites: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "sv39vm",
			Name:      "swap_writes_total",
			Help:      "Pages written out to a swap file.",
		}),
		ResidentPages: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "sv39vm",
			Name:      "resident_pages",
			Help:      "Pages currently resident across all processes.",
		}),
	}
	return r
}

func (r *Registry) PageFault(kind string) {
	if r == nil {
		return
	}
	r.PageFaults.WithLabelValues(kind).Inc()
}

func (r *Registry) Eviction(policy string) {
	if r == nil {
		return
	}
	r.Evictions.WithLabelValues(policy).Inc()
}

func (r *Registry) SwapRead() {
	if r == nil {
		return
	}
	r.SwapReads.Inc()
}

func (r *Registry) SwapWrite() {
	if r == nil {
		return
	}
	r.SwapWrites.Inc()
}

func (r *Registry) ResidentDelta(delta float64) {
	if r == nil {
		return
	}
	r.ResidentPages.Add(delta)
}
