// Package tracing sets up OpenTelemetry tracing.
//
// When enabled, spans are batched to an OTLP/gRPC collector. The session
// coordinator opens one span per handled event; inbound webhook requests
// continue the caller's trace through HTTPMiddleware, and outbound
// completion requests carry traceparent headers.
//
//	tracer, err := tracing.New(ctx, tracing.Config{
//	    Enabled:     true,
//	    Endpoint:    "localhost:4317",
//	    Insecure:    true,
//	    ServiceName: "relay",
//	    SampleRatio: 1,
//	})
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
package tracing
