package odatafilter

import (
	"log/slog"

	"gorm.io/gorm/schema"

	"github.com/nlstn/go-odata-filter/internal/observability"
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for compile diagnostics. A nil logger
// selects slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithObservability enables tracing and metrics. cfg is initialized by New
// if it has not been already.
func WithObservability(cfg *observability.Config) Option {
	return func(c *Compiler) {
		c.observability = cfg
	}
}

// WithMaxRecursionDepth bounds how deeply filter expressions may nest. Each
// parenthesised group and each function argument counts as one level.
// Values below 1 select the default of 200.
func WithMaxRecursionDepth(depth int) Option {
	return func(c *Compiler) {
		c.maxDepth = depth
	}
}

// WithCacheSize sets how many compiled filters are kept per target.
func WithCacheSize(size int) Option {
	return func(c *Compiler) {
		c.cacheSize = size
	}
}

// WithoutCache disables caching of compiled filters.
func WithoutCache() Option {
	return func(c *Compiler) {
		c.cacheDisabled = true
	}
}

// WithNamingStrategy sets the gorm naming strategy used to derive table and
// column names in CompileSQL. It should match the strategy of the *gorm.DB
// the filters are applied to.
func WithNamingStrategy(naming schema.Namer) Option {
	return func(c *Compiler) {
		c.naming = naming
	}
}
