package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(
		WithServiceName("test-service"),
		WithServiceVersion("1.2.3"),
		WithDetailedDBTracing(),
		WithFilterText(),
	)

	assert.Equal(t, "test-service", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.True(t, cfg.EnableDetailedDBTracing)
	assert.True(t, cfg.RecordFilterText)
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
	assert.False(t, cfg.RecordFilterText, "filter text must not be recorded by default")
	assert.False(t, cfg.EnableDetailedDBTracing)
}

func TestConfigInitialize(t *testing.T) {
	cfg := NewConfig(
		WithTracerProvider(tracenoop.NewTracerProvider()),
		WithMeterProvider(noop.NewMeterProvider()),
		WithServiceName("test-service"),
		WithServiceVersion("1.2.3"),
	)

	require.NoError(t, cfg.Initialize())
	tracer := cfg.Tracer()
	assert.Equal(t, []string{"test-service", "1.2.3"}, []string{
		tracer.service[0].Value.AsString(),
		tracer.service[1].Value.AsString(),
	})
	assert.NotNil(t, cfg.Metrics())

	require.NoError(t, cfg.Initialize())
	assert.Same(t, tracer, cfg.Tracer(), "a second Initialize must keep the first tracer")
}

func TestConfigInitializeNoProviders(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Initialize())
	assert.NotNil(t, cfg.Tracer())
	assert.NotNil(t, cfg.Metrics())
	assert.Empty(t, cfg.Tracer().service)
}

func TestConfigInitializeDBTracingWithoutTracer(t *testing.T) {
	cfg := NewConfig(WithMeterProvider(noop.NewMeterProvider()), WithDetailedDBTracing())
	assert.ErrorIs(t, cfg.Initialize(), ErrNoTracerProvider)
	assert.ErrorIs(t, cfg.Initialize(), ErrNoTracerProvider)
}

func TestNilConfig(t *testing.T) {
	var cfg *Config
	assert.NotNil(t, cfg.Tracer())
	assert.NotNil(t, cfg.Metrics())
	assert.False(t, cfg.IsEnabled())
}

func TestIsEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		want bool
	}{
		{"empty", NewConfig(), false},
		{"tracer", NewConfig(WithTracerProvider(tracenoop.NewTracerProvider())), true},
		{"meter", NewConfig(WithMeterProvider(noop.NewMeterProvider())), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.IsEnabled())
		})
	}
}

func TestNoopMetrics(t *testing.T) {
	m := NewNoopMetrics()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordCompile(ctx, "Product", TargetExpr, false, 3*time.Millisecond)
		m.RecordCacheHit(ctx, "Product", TargetExpr)
		m.RecordError(ctx, "Product", TargetSQL, "NoPropertyInType")
		m.RecordDBQuery(ctx, "SELECT", time.Millisecond)
	})
}

func TestNewMetrics(t *testing.T) {
	m := NewMetrics(noop.NewMeterProvider())
	require.NotNil(t, m.compileDuration)
	require.NotNil(t, m.compileCount)
	require.NotNil(t, m.errorCount)
	require.NotNil(t, m.cacheHits)
	require.NotNil(t, m.dbQueryDuration)
	m.RecordCompile(context.Background(), "Product", TargetSQL, true, time.Millisecond)
}

func TestAttributes(t *testing.T) {
	tests := []struct {
		name string
		key  string
		got  string
	}{
		{"filter", AttrFilterText, string(FilterTextAttr("Price gt 1").Key)},
		{"resource type", AttrResourceType, string(ResourceTypeAttr("Product").Key)},
		{"target", AttrTarget, string(TargetAttr(TargetExpr).Key)},
		{"cache hit", AttrCacheHit, string(CacheHitAttr(true).Key)},
		{"navigation paths", AttrNavigationPaths, string(NavigationPathsAttr(2).Key)},
		{"error code", AttrErrorCode, string(ErrorCodeAttr("X").Key)},
		{"error kind", AttrErrorKind, string(ErrorKindAttr("syntax").Key)},
		{"service name", AttrServiceName, string(ServiceNameAttr("svc").Key)},
		{"service version", AttrServiceVersion, string(ServiceVersionAttr("1").Key)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.got)
		})
	}

	assert.EqualValues(t, 2, NavigationPathsAttr(2).Value.AsInt64())
	assert.True(t, CacheHitAttr(true).Value.AsBool())
}

type gormProduct struct {
	ID   int `gorm:"primarykey"`
	Name string
}

func TestRegisterGORMCallbacks(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&gormProduct{}))

	cfg := NewConfig(
		WithTracerProvider(tracenoop.NewTracerProvider()),
		WithMeterProvider(noop.NewMeterProvider()),
		WithDetailedDBTracing(),
	)
	require.NoError(t, cfg.Initialize())
	require.NoError(t, RegisterGORMCallbacks(db, cfg))
	require.NoError(t, db.Create(&gormProduct{ID: 1, Name: "Hammer"}).Error)

	var count int64
	require.NoError(t, db.Model(&gormProduct{}).Where("name = ?", "Hammer").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var names []string
	require.NoError(t, db.Model(&gormProduct{}).Pluck("name", &names).Error)
	assert.Equal(t, []string{"Hammer"}, names)

	// Failing queries still end their span.
	assert.Error(t, db.Table("missing").Where("x = 1").Count(&count).Error)
}

func TestRegisterGORMCallbacksDisabled(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	for _, cfg := range []*Config{
		nil,
		NewConfig(WithDetailedDBTracing()),
		NewConfig(WithTracerProvider(tracenoop.NewTracerProvider())),
	} {
		require.NoError(t, RegisterGORMCallbacks(db, cfg))
	}
	assert.Nil(t, db.Callback().Query().Get("odatafilter:before_query"), "callbacks registered without detailed DB tracing")
}

func TestTracerRecordErrorNil(t *testing.T) {
	tracer := NewNoopTracer()
	_, span := tracer.StartSpan(context.Background(), "test")
	defer span.End()

	assert.NotPanics(t, func() {
		tracer.RecordError(span, nil)
		tracer.RecordFilterError(span, nil, "", "")
		tracer.RecordFilterError(span, errors.New("boom"), "TokenExpected", "syntax")
	})
}
