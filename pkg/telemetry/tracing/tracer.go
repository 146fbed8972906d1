package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc/credentials/insecure"
)

// Config configures tracing.
type Config struct {
	// Enabled installs an SDK tracer provider. When false, tracing is a
	// no-op.
	Enabled bool

	// Endpoint is the OTLP/gRPC collector address (host:port).
	Endpoint string

	// Insecure disables TLS to the collector.
	Insecure bool

	// ServiceName and ServiceVersion describe this process.
	ServiceName    string
	ServiceVersion string

	// SampleRatio is the fraction of root spans sampled.
	SampleRatio float64

	// Exporter overrides the OTLP exporter, mainly for tests.
	Exporter sdktrace.SpanExporter
}

// Tracer owns the process tracer provider.
type Tracer struct {
	provider trace.TracerProvider
	sdk      *sdktrace.TracerProvider
}

// New builds the tracer provider and installs it, with W3C trace context
// propagation, as the otel globals. The OTLP exporter connects lazily, so
// an unreachable collector does not block startup.
func New(ctx context.Context, cfg Config) (*Tracer, error) {
	if !cfg.Enabled {
		provider := noop.NewTracerProvider()
		return &Tracer{provider: provider}, nil
	}

	exporter := cfg.Exporter
	if exporter == nil {
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithTimeout(10 * time.Second),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
		}

		var err error
		exporter, err = otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SampleRatio)),
	)

	otel.SetTracerProvider(sdk)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{provider: sdk, sdk: sdk}, nil
}

// Tracer returns a named tracer from the provider.
func (t *Tracer) Tracer(name string) trace.Tracer {
	return t.provider.Tracer(name)
}

// Enabled reports whether spans are exported.
func (t *Tracer) Enabled() bool {
	return t.sdk != nil
}

// Shutdown flushes pending spans.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.sdk == nil {
		return nil
	}
	return t.sdk.Shutdown(ctx)
}

// TraceID returns the active trace id in ctx, or "".
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
