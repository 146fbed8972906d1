package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mercator-hq/relay/pkg/consent"
	"mercator-hq/relay/pkg/session"
)

// Config configures the collector.
type Config struct {
	// Namespace prefixes every metric name. Default: "relay"
	Namespace string

	// LatencyBuckets are the completion latency histogram buckets in seconds.
	LatencyBuckets []float64
}

// Collector owns the relay's Prometheus metrics. It implements
// session.Observer and consent.Observer, so the coordinator and the gate
// report into it directly.
type Collector struct {
	registry *prometheus.Registry

	session  *SessionMetrics
	provider *ProviderMetrics
	gate     *GateMetrics
}

var (
	_ session.Observer = (*Collector)(nil)
	_ consent.Observer = (*Collector)(nil)
)

// NewCollector creates a collector on registry, or on a new registry if nil.
// Go runtime and process collectors are registered alongside.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "relay"
	}
	if len(cfg.LatencyBuckets) == 0 {
		// Chat completions: 250ms to the 30s default deadline.
		cfg.LatencyBuckets = []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60}
	}

	return &Collector{
		registry: registry,
		session:  NewSessionMetrics(cfg, registry),
		provider: NewProviderMetrics(cfg, registry),
		gate:     NewGateMetrics(cfg, registry),
	}
}

// Registry returns the registry the metrics live on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// EventHandled implements session.Observer.
func (c *Collector) EventHandled(outcome session.Outcome, duration time.Duration) {
	c.session.events.WithLabelValues(string(outcome)).Inc()
	c.session.duration.WithLabelValues(string(outcome)).Observe(duration.Seconds())
}

// CompletionFinished implements session.Observer.
func (c *Collector) CompletionFinished(kind session.FailureKind, latency time.Duration) {
	c.provider.latency.Observe(latency.Seconds())
	if kind != "" {
		c.provider.failures.WithLabelValues(string(kind)).Inc()
	}
}

// WindowEvicted implements session.Observer.
func (c *Collector) WindowEvicted(turns int) {
	c.session.evicted.Add(float64(turns))
}

// LedgerWriteFailed implements session.Observer.
func (c *Collector) LedgerWriteFailed() {
	c.session.ledgerFailures.Inc()
}

// ProcessingChanged implements session.Observer.
func (c *Collector) ProcessingChanged(delta int) {
	c.session.processing.Add(float64(delta))
}

// GateChanged implements consent.Observer.
func (c *Collector) GateChanged(scope consent.Scope, enabled bool) {
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	c.gate.changes.WithLabelValues(scope.String(), state).Inc()
}

// GateStoreFailed implements consent.Observer.
func (c *Collector) GateStoreFailed(operation string) {
	c.gate.storeFailures.WithLabelValues(operation).Inc()
}
