package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCompileDuration = "odatafilter.compile.duration"
	metricCompileCount    = "odatafilter.compile.count"
	metricErrorCount      = "odatafilter.error.count"
	metricCacheHits       = "odatafilter.cache.hits"
	metricDBQueryDuration = "odatafilter.db.query.duration"
)

// Metrics holds the filter compiler's metric instruments.
type Metrics struct {
	compileDuration metric.Float64Histogram
	compileCount    metric.Int64Counter
	errorCount      metric.Int64Counter
	cacheHits       metric.Int64Counter
	dbQueryDuration metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with the given MeterProvider.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(MeterName)
	m := &Metrics{}

	// Note: errors from meter instrument creation are unlikely in practice
	// and would only occur with invalid parameters. We use explicit checks
	// to satisfy the linter while continuing with partial metrics on error.
	var err error

	m.compileDuration, err = meter.Float64Histogram(
		metricCompileDuration,
		metric.WithDescription("Duration of filter compilation in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.compileDuration, _ = meter.Float64Histogram(metricCompileDuration)
	}

	m.compileCount, err = meter.Int64Counter(
		metricCompileCount,
		metric.WithDescription("Total number of compiled filters"),
		metric.WithUnit("{filter}"),
	)
	if err != nil {
		m.compileCount, _ = meter.Int64Counter(metricCompileCount)
	}

	m.errorCount, err = meter.Int64Counter(
		metricErrorCount,
		metric.WithDescription("Total number of rejected filters"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.errorCount, _ = meter.Int64Counter(metricErrorCount)
	}

	m.cacheHits, err = meter.Int64Counter(
		metricCacheHits,
		metric.WithDescription("Number of compilations served from the cache"),
		metric.WithUnit("{filter}"),
	)
	if err != nil {
		m.cacheHits, _ = meter.Int64Counter(metricCacheHits)
	}

	m.dbQueryDuration, err = meter.Float64Histogram(
		metricDBQueryDuration,
		metric.WithDescription("Duration of database queries in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.dbQueryDuration, _ = meter.Float64Histogram(metricDBQueryDuration)
	}

	return m
}

// RecordCompile records a finished compilation.
func (m *Metrics) RecordCompile(ctx context.Context, resourceType, target string, cached bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		ResourceTypeAttr(resourceType),
		TargetAttr(target),
		CacheHitAttr(cached),
	)
	m.compileDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	m.compileCount.Add(ctx, 1, attrs)
}

// RecordCacheHit records a compilation served from the cache.
func (m *Metrics) RecordCacheHit(ctx context.Context, resourceType, target string) {
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(
		ResourceTypeAttr(resourceType),
		TargetAttr(target),
	))
}

// RecordError records a rejected filter.
func (m *Metrics) RecordError(ctx context.Context, resourceType, target, code string) {
	m.errorCount.Add(ctx, 1, metric.WithAttributes(
		ResourceTypeAttr(resourceType),
		TargetAttr(target),
		ErrorCodeAttr(code),
	))
}

// RecordDBQuery records metrics for a database query.
func (m *Metrics) RecordDBQuery(ctx context.Context, operation string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("db.operation", operation))
	m.dbQueryDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}
