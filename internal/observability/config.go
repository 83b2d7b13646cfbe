package observability

import (
	"errors"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultServiceName labels compile spans when no service name is set.
const DefaultServiceName = "odata-filter"

// ErrNoTracerProvider is returned by Initialize when per-query database spans
// are requested without somewhere to send them.
var ErrNoTracerProvider = errors.New("observability: detailed database tracing requires a tracer provider")

// Config decides where a compiler sends its spans and metrics. A Config
// without providers records nothing.
type Config struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider

	// ServiceName and ServiceVersion are set as service.name and
	// service.version on every compile span.
	ServiceName    string
	ServiceVersion string

	// EnableDetailedDBTracing makes RegisterGORMCallbacks open a span for
	// each query and row call on the instrumented *gorm.DB.
	EnableDetailedDBTracing bool

	// RecordFilterText copies the raw filter onto compile spans. Filter texts
	// may carry user data.
	RecordFilterText bool

	once    sync.Once
	initErr error
	tracer  *Tracer
	metrics *Metrics
}

// Option configures a Config.
type Option func(*Config)

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) { c.TracerProvider = tp }
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Config) { c.MeterProvider = mp }
}

func WithServiceName(name string) Option {
	return func(c *Config) { c.ServiceName = name }
}

func WithServiceVersion(version string) Option {
	return func(c *Config) { c.ServiceVersion = version }
}

// WithDetailedDBTracing enables a span per gorm query. It needs a tracer
// provider.
func WithDetailedDBTracing() Option {
	return func(c *Config) { c.EnableDetailedDBTracing = true }
}

// WithFilterText records the raw filter text on compile spans.
func WithFilterText() Option {
	return func(c *Config) { c.RecordFilterText = true }
}

// NewConfig applies opts on top of DefaultServiceName.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{ServiceName: DefaultServiceName}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Initialize builds the tracer and the metric instruments. Only the first
// call does any work, so one Config can be shared by several compilers.
// Missing providers fall back to no-op implementations.
func (c *Config) Initialize() error {
	c.once.Do(func() {
		if c.EnableDetailedDBTracing && c.TracerProvider == nil {
			c.initErr = ErrNoTracerProvider
			return
		}
		c.tracer = NewNoopTracer()
		if c.TracerProvider != nil {
			c.tracer = NewTracer(c.TracerProvider, c.ServiceName, c.ServiceVersion)
		}
		c.metrics = NewNoopMetrics()
		if c.MeterProvider != nil {
			c.metrics = NewMetrics(c.MeterProvider)
		}
	})
	return c.initErr
}

// Tracer is safe on a nil or uninitialized Config.
func (c *Config) Tracer() *Tracer {
	if c == nil || c.tracer == nil {
		return NewNoopTracer()
	}
	return c.tracer
}

// Metrics is safe on a nil or uninitialized Config.
func (c *Config) Metrics() *Metrics {
	if c == nil || c.metrics == nil {
		return NewNoopMetrics()
	}
	return c.metrics
}

// IsEnabled reports whether a tracer or meter provider is set.
func (c *Config) IsEnabled() bool {
	return c != nil && (c.TracerProvider != nil || c.MeterProvider != nil)
}
