package sqlgen

import (
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/nlstn/go-odata-filter/internal/metadata"
	"github.com/nlstn/go-odata-filter/internal/query"
)

// Query is a filter rendered for one table.
type Query struct {
	Table string
	Joins []string
	Where Clause
}

// Render turns a parsed filter into joins and a WHERE clause.
func Render(result *query.ParseResult, rt metadata.ResourceType, dialect Dialect, naming schema.Namer) (*Query, error) {
	p := NewProvider(rt, dialect, naming)
	joins, err := p.Joins(result.NavigationPaths)
	if err != nil {
		return nil, err
	}
	where, err := query.Process[Clause](result.Root, p)
	if err != nil {
		return nil, err
	}
	return &Query{Table: p.Table(), Joins: joins, Where: where}, nil
}

// Apply adds the joins and the WHERE clause to db. The statement's table must
// be the one the query was rendered for, e.g. via db.Table(q.Table) or
// db.Model.
func Apply(db *gorm.DB, q *Query) *gorm.DB {
	if q == nil {
		return db
	}
	for _, join := range q.Joins {
		db = db.Joins(join)
	}
	if q.Where.SQL == "" {
		return db
	}
	return db.Where(q.Where.SQL, q.Where.Args...)
}
