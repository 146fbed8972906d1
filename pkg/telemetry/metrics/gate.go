package metrics

import "github.com/prometheus/client_golang/prometheus"

// GateMetrics covers the reply switch.
type GateMetrics struct {
	changes       *prometheus.CounterVec
	storeFailures *prometheus.CounterVec
}

// NewGateMetrics creates and registers gate metrics.
func NewGateMetrics(cfg Config, registry prometheus.Registerer) *GateMetrics {
	m := &GateMetrics{
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "gate",
			Name:      "changes_total",
			Help:      "Reply switch writes by scope and resulting state",
		}, []string{"scope", "state"}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "gate",
			Name:      "store_failures_total",
			Help:      "Gate store reads and writes that failed",
		}, []string{"operation"}),
	}

	registry.MustRegister(m.changes, m.storeFailures)
	return m
}
