// Command filterc compiles an OData $filter expression against a schema from
// a config file and prints the expr-lang predicate, the navigation paths and
// the SQL rendering. It can evaluate the filter against a JSON item and count
// the matching rows of a database table.
//
//	filterc --config filterc.yaml --type Product --filter "Category/Name eq 'Tools'"
//	filterc --config filterc.yaml --type Product --filter "Price gt 10" --item '{"Price": 12}'
//	FILTERC_DSN=catalog.db filterc --config filterc.yaml --type Product --filter "Price gt 10"
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	odatafilter "github.com/nlstn/go-odata-filter"
	"github.com/nlstn/go-odata-filter/internal/metadata"
	"github.com/nlstn/go-odata-filter/internal/sqlgen"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if err := run(context.Background(), cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config, out io.Writer) error {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	schema, err := metadata.BuildSchema(cfg.Schema)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	rt, ok := schema.Type(cfg.Type)
	if !ok {
		return fmt.Errorf("unknown type %q (known: %v)", cfg.Type, schema.Names())
	}
	dialect, err := sqlgen.ParseDialect(cfg.Dialect)
	if err != nil {
		return err
	}

	compiler := odatafilter.New(odatafilter.WithLogger(logger), odatafilter.WithoutCache())

	filter, err := compiler.Compile(ctx, cfg.Filter, rt)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(out, "predicate: %s\n", filter.Predicate())
	for _, path := range filter.NavigationPaths() {
		fmt.Fprintf(out, "navigation: %s\n", path)
	}

	sqlFilter, err := compiler.CompileSQL(ctx, cfg.Filter, rt, dialect)
	if err != nil {
		// Some valid filters have no SQL form; the predicate is still usable.
		fmt.Fprintf(out, "sql: unavailable: %v\n", err)
	} else {
		for _, join := range sqlFilter.Joins() {
			fmt.Fprintf(out, "join: %s\n", join)
		}
		fmt.Fprintf(out, "where: %s\n", sqlFilter.Where())
		fmt.Fprintf(out, "args: %v\n", sqlFilter.Args())
	}

	if cfg.Item != "" {
		var item map[string]any
		if err := json.Unmarshal([]byte(cfg.Item), &item); err != nil {
			return fmt.Errorf("--item: %w", err)
		}
		matched, err := filter.Match(item)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "match: %t\n", matched)
	}

	if cfg.DSN != "" {
		if sqlFilter == nil {
			return fmt.Errorf("cannot count rows: filter has no SQL form")
		}
		db, err := sqlgen.Open(dialect, cfg.DSN, cfg.Debug)
		if err != nil {
			return err
		}
		if err := compiler.InstrumentDB(db); err != nil {
			return err
		}
		table := cfg.Table
		if table == "" {
			table = sqlFilter.Table()
		}
		var count int64
		if err := sqlFilter.Apply(db.WithContext(ctx).Table(table)).Count(&count).Error; err != nil {
			return fmt.Errorf("count rows: %w", err)
		}
		fmt.Fprintf(out, "count: %d\n", count)
	}
	return nil
}

// describe adds the error code and position of filter errors.
func describe(err error) error {
	var fe *odatafilter.Error
	if !errors.As(err, &fe) {
		return err
	}
	return fmt.Errorf("%s (%s, HTTP %d)", fe.Error(), fe.Code, odatafilter.StatusCode(err))
}
