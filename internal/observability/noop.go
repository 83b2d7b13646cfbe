package observability

import (
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// NewNoopTracer creates a tracer that does nothing.
func NewNoopTracer() *Tracer {
	return &Tracer{tracer: tracenoop.NewTracerProvider().Tracer("")}
}

// NewNoopMetrics creates metrics that do nothing.
func NewNoopMetrics() *Metrics {
	meter := noop.NewMeterProvider().Meter("")
	m := &Metrics{}

	// Note: noop meter never returns errors, but we must check them to satisfy the linter.
	m.compileDuration, _ = meter.Float64Histogram(metricCompileDuration) //nolint:errcheck
	m.compileCount, _ = meter.Int64Counter(metricCompileCount)           //nolint:errcheck
	m.errorCount, _ = meter.Int64Counter(metricErrorCount)               //nolint:errcheck
	m.cacheHits, _ = meter.Int64Counter(metricCacheHits)                 //nolint:errcheck
	m.dbQueryDuration, _ = meter.Float64Histogram(metricDBQueryDuration) //nolint:errcheck

	return m
}
