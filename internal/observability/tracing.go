package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer with span helpers for the filter
// pipeline.
type Tracer struct {
	tracer  trace.Tracer
	service []attribute.KeyValue
}

// NewTracer creates a Tracer whose compile spans carry the given service name
// and version. Empty values are left off.
func NewTracer(tp trace.TracerProvider, serviceName, serviceVersion string) *Tracer {
	t := &Tracer{tracer: tp.Tracer(TracerName, trace.WithInstrumentationVersion(serviceVersion))}
	if serviceName != "" {
		t.service = append(t.service, ServiceNameAttr(serviceName))
	}
	if serviceVersion != "" {
		t.service = append(t.service, ServiceVersionAttr(serviceVersion))
	}
	return t
}

// StartSpan starts a new span with the given name and attributes.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span
}

// StartCompile starts a span covering lexing, parsing and rendering of one
// filter. The filter text is attached only when text is non-empty.
func (t *Tracer) StartCompile(ctx context.Context, resourceType, target, text string) (context.Context, trace.Span) {
	attrs := append([]attribute.KeyValue{
		ResourceTypeAttr(resourceType),
		TargetAttr(target),
	}, t.service...)
	if text != "" {
		attrs = append(attrs, FilterTextAttr(text))
	}
	return t.tracer.Start(ctx, "odatafilter.compile", trace.WithAttributes(attrs...))
}

// StartRender starts a span for running a provider over a parsed tree.
func (t *Tracer) StartRender(ctx context.Context, target string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "odatafilter.render", trace.WithAttributes(
		TargetAttr(target),
	))
}

// StartDBQuery starts a span for a database query.
func (t *Tracer) StartDBQuery(ctx context.Context, operation string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "db.query", trace.WithAttributes(
		attribute.String("db.operation", operation),
	))
}

// RecordError records an error on the span.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// RecordFilterError records a filter error together with its code and kind.
func (t *Tracer) RecordFilterError(span trace.Span, err error, code, kind string) {
	if err == nil {
		return
	}
	if code != "" {
		span.SetAttributes(ErrorCodeAttr(code))
	}
	if kind != "" {
		span.SetAttributes(ErrorKindAttr(kind))
	}
	t.RecordError(span, err)
}

// LoggerWithTrace returns a logger enriched with trace context.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return logger
	}
	return logger.With(
		slog.String(LogFieldTraceID, span.SpanContext().TraceID().String()),
		slog.String(LogFieldSpanID, span.SpanContext().SpanID().String()),
	)
}
