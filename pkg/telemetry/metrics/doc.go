// Package metrics exposes the relay's Prometheus metrics.
//
// A Collector is passed to session.NewCoordinator and consent.New as their
// Observer, and its Handler is mounted at /metrics:
//
//	collector := metrics.NewCollector(metrics.Config{Namespace: "relay"}, nil)
//	gate := consent.New(consent.Config{Store: store, Observer: collector})
//	mux.Handle("/metrics", collector.Handler())
//
// Labels carry only bounded values (outcome, failure kind, scope); never
// conversation or user ids.
package metrics
