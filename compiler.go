// Package odatafilter compiles OData $filter expressions into typed
// expression trees and renders them as expr-lang predicates for in-memory
// evaluation or as SQL for gorm queries.
//
//	compiler := odatafilter.New()
//	f, err := compiler.Compile(ctx, "Price gt 10 and Category/Name eq 'Tools'", productType)
//	if err != nil {
//	    return odatafilter.StatusCode(err), err
//	}
//	ok, err := f.Match(product)
package odatafilter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/nlstn/go-odata-filter/internal/cache"
	"github.com/nlstn/go-odata-filter/internal/exprlang"
	"github.com/nlstn/go-odata-filter/internal/observability"
	"github.com/nlstn/go-odata-filter/internal/query"
	"github.com/nlstn/go-odata-filter/internal/sqlgen"
)

// Compiler parses filter texts against resource types and caches the
// results. Cache entries are keyed by the resource type's name, so every
// type passed to one Compiler must have a distinct name.
//
// A Compiler is safe for concurrent use.
type Compiler struct {
	logger        *slog.Logger
	observability *observability.Config
	naming        schema.Namer
	maxDepth      int
	cacheSize     int
	cacheDisabled bool

	filters    *cache.Cache[*Filter]
	sqlFilters *cache.Cache[*SQLFilter]
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.observability != nil && c.observability.IsEnabled() {
		if err := c.observability.Initialize(); err != nil {
			c.logger.Warn("observability disabled", observability.LogFieldError, err)
			c.observability = nil
		}
	}
	if !c.cacheDisabled {
		c.filters = cache.New[*Filter](c.cacheSize)
		c.sqlFilters = cache.New[*SQLFilter](c.cacheSize)
	}
	return c
}

// Compile parses text against rt and prepares it for in-memory evaluation.
// Property paths in the result are guarded against null intermediate
// values, so Match does not fail on missing navigation targets.
func (c *Compiler) Compile(ctx context.Context, text string, rt ResourceType) (*Filter, error) {
	start := time.Now()
	target := observability.TargetExpr
	ctx, span := c.tracer().StartCompile(ctx, rt.Name(), target, c.spanText(text))
	defer span.End()

	key := cache.Key{Type: rt.Name(), Target: target, Text: text}
	if c.filters != nil {
		if f, ok := c.filters.Get(key); ok {
			c.compiled(ctx, span, rt, target, text, len(f.paths), true, start)
			return f, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := query.ParseFilter(text, rt, query.ParserOptions{MaxDepth: c.maxDepth})
	if err != nil {
		return nil, c.failed(ctx, span, rt, target, text, err)
	}

	predicate, err := c.renderPredicate(ctx, result.Root)
	if err != nil {
		return nil, c.failed(ctx, span, rt, target, text, err)
	}

	f := &Filter{
		text:      text,
		typeName:  rt.Name(),
		root:      result.Root,
		paths:     result.NavigationPaths,
		predicate: predicate,
	}
	if c.filters != nil {
		c.filters.Put(key, f)
	}
	c.compiled(ctx, span, rt, target, text, len(f.paths), false, start)
	return f, nil
}

func (c *Compiler) renderPredicate(ctx context.Context, root query.Expression) (*exprlang.Predicate, error) {
	_, span := c.tracer().StartRender(ctx, observability.TargetExpr)
	defer span.End()

	source, err := exprlang.Render(root)
	if err != nil {
		c.tracer().RecordError(span, err)
		return nil, err
	}
	predicate, err := exprlang.Compile(source)
	if err != nil {
		// Rendered source that expr-lang rejects is a compiler bug.
		err = query.InternalError(query.CodeUnexpectedNode, "%v", err)
		c.tracer().RecordError(span, err)
		return nil, err
	}
	return predicate, nil
}

// CompileSQL parses text against rt and renders it as a WHERE clause plus
// the LEFT JOINs its navigation paths need. Null comparisons become IS NULL
// tests and no null guards are added, since SQL propagates NULL through
// joins on its own.
func (c *Compiler) CompileSQL(ctx context.Context, text string, rt ResourceType, dialect Dialect) (*SQLFilter, error) {
	start := time.Now()
	target := observability.TargetSQL + ":" + string(dialect)
	ctx, span := c.tracer().StartCompile(ctx, rt.Name(), target, c.spanText(text))
	defer span.End()

	key := cache.Key{Type: rt.Name(), Target: target, Text: text}
	if c.sqlFilters != nil {
		if f, ok := c.sqlFilters.Get(key); ok {
			c.compiled(ctx, span, rt, target, text, len(f.paths), true, start)
			return f, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := query.ParseFilter(text, rt, query.ParserOptions{CustomProvider: true, MaxDepth: c.maxDepth})
	if err != nil {
		return nil, c.failed(ctx, span, rt, target, text, err)
	}

	_, renderSpan := c.tracer().StartRender(ctx, target)
	q, err := sqlgen.Render(result, rt, dialect, c.naming)
	if err != nil {
		c.tracer().RecordError(renderSpan, err)
		renderSpan.End()
		return nil, c.failed(ctx, span, rt, target, text, err)
	}
	renderSpan.End()

	f := &SQLFilter{
		text:    text,
		dialect: dialect,
		query:   q,
		paths:   result.NavigationPaths,
	}
	if c.sqlFilters != nil {
		c.sqlFilters.Put(key, f)
	}
	c.compiled(ctx, span, rt, target, text, len(f.paths), false, start)
	return f, nil
}

// Process parses text against rt for a custom provider and renders the tree
// with p. The tree is not null-guarded and null comparisons are passed to
// p as relational nodes with a null constant operand. Results are not
// cached.
func Process[T any](ctx context.Context, c *Compiler, text string, rt ResourceType, p Provider[T]) (T, []NavigationPath, error) {
	var zero T
	target := "custom"
	ctx, span := c.tracer().StartCompile(ctx, rt.Name(), target, c.spanText(text))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return zero, nil, err
	}

	start := time.Now()
	result, err := query.ParseFilter(text, rt, query.ParserOptions{CustomProvider: true, MaxDepth: c.maxDepth})
	if err != nil {
		return zero, nil, c.failed(ctx, span, rt, target, text, err)
	}

	_, renderSpan := c.tracer().StartRender(ctx, target)
	out, err := query.Process[T](result.Root, p)
	if err != nil {
		c.tracer().RecordError(renderSpan, err)
		renderSpan.End()
		return zero, nil, c.failed(ctx, span, rt, target, text, err)
	}
	renderSpan.End()

	c.compiled(ctx, span, rt, target, text, len(result.NavigationPaths), false, start)
	return out, result.NavigationPaths, nil
}

// InstrumentDB registers query tracing callbacks on db when the compiler's
// observability config has a tracer provider and detailed DB tracing
// enabled. It does nothing otherwise.
func (c *Compiler) InstrumentDB(db *gorm.DB) error {
	return observability.RegisterGORMCallbacks(db, c.observability)
}

// ResetCache drops every cached filter.
func (c *Compiler) ResetCache() {
	if c.filters != nil {
		c.filters.Reset()
		c.sqlFilters.Reset()
	}
}

func (c *Compiler) tracer() *observability.Tracer {
	return c.observability.Tracer()
}

func (c *Compiler) metrics() *observability.Metrics {
	return c.observability.Metrics()
}

func (c *Compiler) spanText(text string) string {
	if c.observability != nil && c.observability.RecordFilterText {
		return text
	}
	return ""
}

func (c *Compiler) compiled(ctx context.Context, span trace.Span, rt ResourceType, target, text string, paths int, cached bool, start time.Time) {
	elapsed := time.Since(start)
	span.SetAttributes(
		observability.CacheHitAttr(cached),
		observability.NavigationPathsAttr(paths),
	)
	if cached {
		c.metrics().RecordCacheHit(ctx, rt.Name(), target)
	}
	c.metrics().RecordCompile(ctx, rt.Name(), target, cached, elapsed)

	observability.LoggerWithTrace(ctx, c.logger).Debug("filter compiled",
		observability.LogFieldFilter, text,
		observability.LogFieldResourceType, rt.Name(),
		observability.LogFieldTarget, target,
		observability.LogFieldCacheHit, cached,
		"navigation_paths", paths,
		observability.LogFieldDuration, float64(elapsed.Microseconds())/1000,
	)
}

func (c *Compiler) failed(ctx context.Context, span trace.Span, rt ResourceType, target, text string, err error) error {
	code := string(query.CodeOf(err))
	kind := ""
	var fe *query.Error
	if errors.As(err, &fe) {
		kind = fe.Kind.String()
	}
	c.tracer().RecordFilterError(span, err, code, kind)
	if code == "" {
		code = "Unknown"
	}
	c.metrics().RecordError(ctx, rt.Name(), target, code)

	logger := observability.LoggerWithTrace(ctx, c.logger)
	if IsRequestError(err) {
		logger.Debug("filter rejected",
			observability.LogFieldFilter, text,
			observability.LogFieldResourceType, rt.Name(),
			observability.LogFieldError, err,
		)
	} else {
		logger.Warn("filter compilation failed",
			observability.LogFieldFilter, text,
			observability.LogFieldResourceType, rt.Name(),
			observability.LogFieldTarget, target,
			observability.LogFieldError, err,
		)
	}
	return err
}
