package odatafilter

import (
	"gorm.io/gorm"

	"github.com/nlstn/go-odata-filter/internal/exprlang"
	"github.com/nlstn/go-odata-filter/internal/query"
	"github.com/nlstn/go-odata-filter/internal/sqlgen"
)

// Filter is a compiled filter for in-memory evaluation. Filters are
// immutable and may be shared between goroutines.
type Filter struct {
	text      string
	typeName  string
	root      query.Expression
	paths     []query.NavigationPath
	predicate *exprlang.Predicate
}

// Text returns the filter text the Filter was compiled from.
func (f *Filter) Text() string { return f.text }

// ResourceType returns the name of the type the filter was resolved against.
func (f *Filter) ResourceType() string { return f.typeName }

// Expression returns the null-guarded expression tree.
func (f *Filter) Expression() Expression { return f.root }

// Predicate returns the expr-lang source of the filter. The filtered item is
// bound to the variable "item".
func (f *Filter) Predicate() string { return f.predicate.Source() }

// NavigationPaths returns the distinct navigation property paths the filter
// reads through, in order of first appearance.
func (f *Filter) NavigationPaths() []NavigationPath {
	return append([]NavigationPath(nil), f.paths...)
}

// Match reports whether item satisfies the filter. item may be a struct, a
// pointer to a struct or a map keyed by property name; nested navigation
// and complex values follow the same rules.
func (f *Filter) Match(item any) (bool, error) {
	return f.predicate.Match(item)
}

// String returns the expression tree in prefix notation.
func (f *Filter) String() string {
	return query.Format(f.root)
}

// SQLFilter is a compiled filter rendered as SQL. SQLFilters are immutable
// and may be shared between goroutines.
type SQLFilter struct {
	text    string
	dialect Dialect
	query   *sqlgen.Query
	paths   []query.NavigationPath
}

// Text returns the filter text the SQLFilter was compiled from.
func (f *SQLFilter) Text() string { return f.text }

// Dialect returns the SQL dialect the filter was rendered for.
func (f *SQLFilter) Dialect() Dialect { return f.dialect }

// Table returns the unquoted name of the table the WHERE clause refers to.
func (f *SQLFilter) Table() string { return f.query.Table }

// Joins returns the LEFT JOIN clauses the WHERE clause depends on.
func (f *SQLFilter) Joins() []string {
	return append([]string(nil), f.query.Joins...)
}

// Where returns the WHERE clause with ? placeholders.
func (f *SQLFilter) Where() string { return f.query.Where.SQL }

// Args returns the values bound to the placeholders of Where, in order.
func (f *SQLFilter) Args() []interface{} {
	return append([]interface{}(nil), f.query.Where.Args...)
}

// NavigationPaths returns the distinct navigation property paths the filter
// reads through, in order of first appearance.
func (f *SQLFilter) NavigationPaths() []NavigationPath {
	return append([]NavigationPath(nil), f.paths...)
}

// Apply adds the joins and the WHERE clause to db. The statement's table
// must be the one returned by Table, e.g. via db.Model or db.Table.
func (f *SQLFilter) Apply(db *gorm.DB) *gorm.DB {
	return sqlgen.Apply(db, f.query)
}
