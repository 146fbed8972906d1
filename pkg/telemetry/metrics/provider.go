package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/relay/pkg/providers"
)

// ProviderMetrics covers completion calls.
//
// Metrics:
//   - relay_provider_completion_latency_seconds
//   - relay_provider_completion_failures_total{kind}
//   - relay_provider_healthy{provider}
type ProviderMetrics struct {
	latency  prometheus.Histogram
	failures *prometheus.CounterVec
	registry prometheus.Registerer
	ns       string
}

// NewProviderMetrics creates and registers provider metrics.
func NewProviderMetrics(cfg Config, registry prometheus.Registerer) *ProviderMetrics {
	m := &ProviderMetrics{
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "provider",
			Name:      "completion_latency_seconds",
			Help:      "Completion call latency, successful and failed",
			Buckets:   cfg.LatencyBuckets,
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "provider",
			Name:      "completion_failures_total",
			Help:      "Failed completion calls by failure kind",
		}, []string{"kind"}),
		registry: registry,
		ns:       cfg.Namespace,
	}

	registry.MustRegister(m.latency, m.failures)
	return m
}

// WatchProvider exports p's health as a gauge read at scrape time.
func (c *Collector) WatchProvider(p providers.Provider) error {
	return c.provider.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   c.provider.ns,
		Subsystem:   "provider",
		Name:        "healthy",
		Help:        "1 when recent completion calls succeeded",
		ConstLabels: prometheus.Labels{"provider": p.GetName()},
	}, func() float64 {
		if p.IsHealthy() {
			return 1
		}
		return 0
	}))
}
