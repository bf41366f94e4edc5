package cache

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts cache lookups and background writes.
type Metrics struct {
	Lookups *prometheus.CounterVec
	Writes  *prometheus.CounterVec
}

// NewMetrics creates the cache counters and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Response cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		Writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_writes_total",
			Help: "Background response cache writes by result (ok, error, skipped).",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.Lookups, m.Writes)
	}
	return m
}
