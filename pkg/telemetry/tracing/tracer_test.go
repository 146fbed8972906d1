package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracer(t *testing.T) (*Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tr, err := New(context.Background(), Config{
		Enabled:     true,
		ServiceName: "relay-test",
		SampleRatio: 1,
		Exporter:    exporter,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { tr.Shutdown(context.Background()) })
	return tr, exporter
}

func TestNew_Disabled(t *testing.T) {
	tr, err := New(context.Background(), Config{})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Enabled() {
		t.Error("disabled tracer reports enabled")
	}
	_, span := tr.Tracer("x").Start(context.Background(), "op")
	if span.SpanContext().IsValid() {
		t.Error("disabled tracer produced a real span")
	}
	span.End()
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_ExportsSpans(t *testing.T) {
	tr, exporter := newTestTracer(t)

	ctx, span := tr.Tracer("test").Start(context.Background(), "session.Handle")
	if TraceID(ctx) == "" {
		t.Error("TraceID() empty inside a span")
	}
	span.End()

	if err := tr.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "session.Handle" {
		t.Fatalf("exported spans = %v", spans)
	}
}

func TestNewSampler(t *testing.T) {
	params := sdktrace.SamplingParameters{ParentContext: context.Background(), TraceID: [16]byte{1}}

	if got := newSampler(1).ShouldSample(params).Decision; got != sdktrace.RecordAndSample {
		t.Errorf("ratio 1 decision = %v", got)
	}
	if got := newSampler(0).ShouldSample(params).Decision; got != sdktrace.Drop {
		t.Errorf("ratio 0 decision = %v", got)
	}
}

func TestHTTPMiddleware_ContinuesTrace(t *testing.T) {
	tr, exporter := newTestTracer(t)

	var seen string
	handler := HTTPMiddleware(tr.Tracer("http"), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceID(r.Context())
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", nil)
	const parentTrace = "4bf92f3577b34da6a3ce929d0e0e4736"
	req.Header.Set("traceparent", "00-"+parentTrace+"-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()

	otel.SetTextMapPropagator(propagation.TraceContext{})
	handler.ServeHTTP(rec, req)

	if seen != parentTrace {
		t.Errorf("handler trace id = %q, want %q", seen, parentTrace)
	}
	if rec.Header().Get("X-Trace-ID") != parentTrace {
		t.Errorf("X-Trace-ID = %q", rec.Header().Get("X-Trace-ID"))
	}

	tr.Shutdown(context.Background())
	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "POST /v1/messages" {
		t.Fatalf("spans = %v", spans)
	}
}
