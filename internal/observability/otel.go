package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OtelTracer implements Tracer over an OpenTelemetry trace.Tracer.
type OtelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer wraps an existing trace.Tracer (e.g. one obtained via
// otel.Tracer(name)).
func NewOtelTracer(tracer trace.Tracer) *OtelTracer {
	return &OtelTracer{tracer: tracer}
}

func (o *OtelTracer) StartSpan(ctx context.Context, operation string) (context.Context, Span) {
	spanCtx, span := o.tracer.Start(ctx, operation)
	return spanCtx, &otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, toString(v)))
	}
}

func (s *otelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *otelSpan) End() {
	s.span.End()
}

func toString(v any) string {
	if stringer, ok := v.(interface{ String() string }); ok {
		return stringer.String()
	}
	return "unknown"
}
