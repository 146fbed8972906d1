// Package telemetry groups the relay's observability packages.
//
//   - logging: slog setup with secret redaction and trace correlation
//   - metrics: Prometheus collectors for sessions, the gate and the provider
//   - tracing: OpenTelemetry tracer provider and HTTP propagation
//   - health: liveness and readiness probes
//
// Log records never carry message text or completions. Conversation ids,
// outcomes, latencies and failure kinds are logged; content is not.
package telemetry
