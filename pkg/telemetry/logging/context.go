package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

type fieldsKey struct{}

// WithFields returns a context carrying attributes that every record logged
// with that context includes.
func WithFields(ctx context.Context, attrs ...slog.Attr) context.Context {
	existing, _ := ctx.Value(fieldsKey{}).([]slog.Attr)
	merged := make([]slog.Attr, 0, len(existing)+len(attrs))
	merged = append(merged, existing...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// contextHandler adds context fields and the active span's trace and span
// ids to each record.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if attrs, ok := ctx.Value(fieldsKey{}).([]slog.Attr); ok {
		rec.AddAttrs(attrs...)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		rec.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
