// Package sqlgen renders filter expressions into SQL WHERE clauses with bound
// arguments and applies them to gorm queries.
package sqlgen

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialect selects the SQL spelling of functions that differ between
// databases. Its values match gorm's Dialector.Name().
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// ParseDialect accepts the dialect names understood by Open.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	}
	return "", fmt.Errorf("unsupported dialect %q", name)
}

// DialectOf returns the dialect of an open database, defaulting to SQLite.
func DialectOf(db *gorm.DB) Dialect {
	if db == nil || db.Dialector == nil {
		return SQLite
	}
	if d, err := ParseDialect(db.Dialector.Name()); err == nil {
		return d
	}
	return SQLite
}

// Open opens a gorm database for the dialect. Set verbose to log every
// statement gorm executes.
func Open(dialect Dialect, dsn string, verbose bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dialect {
	case SQLite:
		dialector = sqlite.Open(dsn)
	case Postgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	level := logger.Silent
	if verbose {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	return db, nil
}

// quoteIdent quotes an identifier with double quotes, which both sqlite and
// postgres accept. Embedded quotes are doubled.
func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// datePartSQL extracts one calendar field as an integer.
func (d Dialect) datePartSQL(field string) string {
	if d == Postgres {
		return "(EXTRACT(" + field + " FROM {0})::INT)"
	}
	format := map[string]string{
		"YEAR":   "%Y",
		"MONTH":  "%m",
		"DAY":    "%d",
		"HOUR":   "%H",
		"MINUTE": "%M",
		"SECOND": "%S",
	}[field]
	return "CAST(strftime('" + format + "', {0}) AS INTEGER)"
}
