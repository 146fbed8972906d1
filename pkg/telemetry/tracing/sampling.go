package tracing

import sdktrace "go.opentelemetry.io/otel/sdk/trace"

// newSampler samples ratio of root spans and follows the parent's decision
// otherwise.
func newSampler(ratio float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case ratio >= 1:
		root = sdktrace.AlwaysSample()
	case ratio <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(root)
}
