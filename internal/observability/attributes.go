// Package observability provides OpenTelemetry-based instrumentation for
// filter compilation and SQL execution.
//
// All observability features are opt-in. When not configured, no-op
// implementations are used.
package observability

import "go.opentelemetry.io/otel/attribute"

// Instrumentation identity constants
const (
	// TracerName is the instrumentation name for tracing.
	TracerName = "github.com/nlstn/go-odata-filter"
	// MeterName is the instrumentation name for metrics.
	MeterName = "github.com/nlstn/go-odata-filter"
)

// Filter attribute keys.
const (
	AttrFilterText      = "odatafilter.filter"
	AttrResourceType    = "odatafilter.resource_type"
	AttrTarget          = "odatafilter.target"
	AttrCacheHit        = "odatafilter.cache_hit"
	AttrNavigationPaths = "odatafilter.navigation_paths"

	AttrErrorCode = "odatafilter.error.code"
	AttrErrorKind = "odatafilter.error.kind"

	AttrServiceName    = "service.name"
	AttrServiceVersion = "service.version"
)

// Render targets for the odatafilter.target attribute.
const (
	TargetExpr = "expr"
	TargetSQL  = "sql"
)

// Log field keys for structured logging with trace context.
const (
	LogFieldFilter       = "filter"
	LogFieldResourceType = "resource_type"
	LogFieldTarget       = "target"
	LogFieldTraceID      = "trace_id"
	LogFieldSpanID       = "span_id"
	LogFieldDuration     = "duration_ms"
	LogFieldCacheHit     = "cache_hit"
	LogFieldError        = "error"
)

// FilterTextAttr creates an attribute for the raw filter text.
func FilterTextAttr(text string) attribute.KeyValue {
	return attribute.String(AttrFilterText, text)
}

// ResourceTypeAttr creates an attribute for the resource type name.
func ResourceTypeAttr(name string) attribute.KeyValue {
	return attribute.String(AttrResourceType, name)
}

// TargetAttr creates an attribute for the render target.
func TargetAttr(target string) attribute.KeyValue {
	return attribute.String(AttrTarget, target)
}

// CacheHitAttr creates an attribute telling whether a compiled filter came
// from the cache.
func CacheHitAttr(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

// NavigationPathsAttr creates an attribute for the number of navigation
// paths a filter traverses.
func NavigationPathsAttr(n int) attribute.KeyValue {
	return attribute.Int(AttrNavigationPaths, n)
}

// ErrorCodeAttr creates an attribute for the error code.
func ErrorCodeAttr(code string) attribute.KeyValue {
	return attribute.String(AttrErrorCode, code)
}

// ErrorKindAttr creates an attribute for the error kind.
func ErrorKindAttr(kind string) attribute.KeyValue {
	return attribute.String(AttrErrorKind, kind)
}

// ServiceNameAttr creates an attribute for the service compiling filters.
func ServiceNameAttr(name string) attribute.KeyValue {
	return attribute.String(AttrServiceName, name)
}

// ServiceVersionAttr creates an attribute for the service version.
func ServiceVersionAttr(version string) attribute.KeyValue {
	return attribute.String(AttrServiceVersion, version)
}
