// Package metrics exposes the Prometheus counters and gauges the engine
// packages increment as they run. A Registry is a thin struct of
// pre-constructed collectors, grounded on the client_golang request/latency
// instrumentation pattern: construct one, pass it into engine Options, and
// register it with a prometheus.Registerer of your choosing (or leave it
// unregistered in tests, where the counters still work as plain values).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry groups the counters and gauges this module's engines report to.
type Registry struct {
	BalanceCandidates   prometheus.Counter
	OverlapEmitted      prometheus.Counter
	PartitionMigrated   prometheus.Counter
	PoolLive            prometheus.Gauge
}

// NewRegistry constructs a Registry with fresh, unregistered collectors.
// Call Registerer.MustRegister(r.Collectors()...) to expose them.
func NewRegistry() *Registry {
	return &Registry{
		BalanceCandidates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forest_balance_candidates_total",
			Help: "Candidate quadrants considered by the balance engine.",
		}),
		OverlapEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forest_overlap_emitted_total",
			Help: "Quadrants emitted by the overlap engine's insulation layer.",
		}),
		PartitionMigrated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forest_partition_migrated_total",
			Help: "Quadrants migrated across ranks by the partition engine.",
		}),
		PoolLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "forest_pool_live_total",
			Help: "Live (unfreed) handles in the payload pool.",
		}),
	}
}

// Collectors returns every collector in r, for bulk registration.
func (r *Registry) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.BalanceCandidates, r.OverlapEmitted, r.PartitionMigrated, r.PoolLive}
}

// Noop is a Registry whose counters are allocated but never registered,
// safe to pass to engines in tests and call sites that do not care about
// metrics.
func Noop() *Registry {
	return NewRegistry()
}
