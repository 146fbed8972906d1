package metrics

import "github.com/prometheus/client_golang/prometheus"

// SessionMetrics covers event handling in the coordinator.
//
// Metrics:
//   - relay_session_events_total{outcome}
//   - relay_session_event_duration_seconds{outcome}
//   - relay_session_window_evicted_turns_total
//   - relay_session_conversations_processing
//   - relay_session_ledger_write_failures_total
type SessionMetrics struct {
	events         *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	evicted        prometheus.Counter
	processing     prometheus.Gauge
	ledgerFailures prometheus.Counter
}

// NewSessionMetrics creates and registers session metrics.
func NewSessionMetrics(cfg Config, registry prometheus.Registerer) *SessionMetrics {
	m := &SessionMetrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "session",
			Name:      "events_total",
			Help:      "Inbound events handled, by outcome",
		}, []string{"outcome"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "session",
			Name:      "event_duration_seconds",
			Help:      "Time from acquiring a conversation to producing the result",
			Buckets:   cfg.LatencyBuckets,
		}, []string{"outcome"}),

		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "session",
			Name:      "window_evicted_turns_total",
			Help:      "Turns dropped from context windows",
		}),

		processing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "session",
			Name:      "conversations_processing",
			Help:      "Conversations currently processing an event",
		}),

		ledgerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "session",
			Name:      "ledger_write_failures_total",
			Help:      "Replies delivered but not recorded in the ledger",
		}),
	}

	registry.MustRegister(m.events, m.duration, m.evicted, m.processing, m.ledgerFailures)
	return m
}
