package sqlgen

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm/schema"

	"github.com/nlstn/go-odata-filter/internal/edm"
	"github.com/nlstn/go-odata-filter/internal/metadata"
	"github.com/nlstn/go-odata-filter/internal/query"
)

// ErrUnsupported is returned for expressions that parse but have no SQL form,
// such as navigating through a complex property.
var ErrUnsupported = errors.New("sqlgen: expression not supported in SQL")

// tabled is implemented by resource types that carry an explicit table name.
type tabled interface {
	Table() string
}

// Provider renders expressions into SQL. Property paths are qualified with
// the root table, or with the alias of the join for their navigation prefix.
// It is meant for trees parsed with query.ParserOptions.CustomProvider:
// null comparisons become IS NULL tests and SQL's three-valued logic takes
// the place of null guards.
type Provider struct {
	dialect Dialect
	naming  schema.Namer
	table   string
}

var _ query.Provider[Clause] = (*Provider)(nil)

// NewProvider creates a provider for filters over rt. A nil naming falls
// back to gorm's default NamingStrategy.
func NewProvider(rt metadata.ResourceType, dialect Dialect, naming schema.Namer) *Provider {
	if naming == nil {
		naming = schema.NamingStrategy{}
	}
	p := &Provider{dialect: dialect, naming: naming}
	p.table = p.tableName(rt)
	return p
}

// Table returns the unquoted table name of the root type.
func (p *Provider) Table() string {
	return p.table
}

func (p *Provider) tableName(rt metadata.ResourceType) string {
	if t, ok := rt.(tabled); ok && t.Table() != "" {
		return t.Table()
	}
	return p.naming.TableName(rt.Name())
}

func (p *Provider) columnName(prop metadata.ResourceProperty) string {
	if hints, ok := prop.(metadata.StorageHints); ok && hints.Column() != "" {
		return hints.Column()
	}
	return p.naming.ColumnName("", prop.Name())
}

func (p *Provider) foreignKey(nav metadata.ResourceProperty) string {
	if hints, ok := nav.(metadata.StorageHints); ok && hints.ForeignKey() != "" {
		return p.naming.ColumnName("", hints.ForeignKey())
	}
	return p.naming.ColumnName("", nav.Name()+"ID")
}

func (p *Provider) referencedKey(nav metadata.ResourceProperty) string {
	if hints, ok := nav.(metadata.StorageHints); ok && hints.References() != "" {
		return p.naming.ColumnName("", hints.References())
	}
	return "id"
}

// alias names the join for a navigation prefix after its filter path, e.g.
// "Category/Supplier".
func alias(path []metadata.ResourceProperty) string {
	names := make([]string, len(path))
	for i, prop := range path {
		names[i] = prop.Name()
	}
	return strings.Join(names, "/")
}

func (p *Provider) owner(path []metadata.ResourceProperty) string {
	if len(path) == 0 {
		return p.table
	}
	return alias(path)
}

// Joins returns one LEFT JOIN per distinct navigation prefix of paths, parents
// before children.
func (p *Provider) Joins(paths []query.NavigationPath) ([]string, error) {
	var joins []string
	seen := make(map[string]bool)
	for _, path := range paths {
		for i := range path {
			prefix := path[:i+1]
			name := alias(prefix)
			if seen[name] {
				continue
			}
			seen[name] = true

			nav := prefix[i]
			if nav.Kind() != metadata.ResourceReference || nav.TargetType() == nil {
				return nil, fmt.Errorf("%w: %s is not a single-valued navigation", ErrUnsupported, name)
			}
			joins = append(joins, fmt.Sprintf("LEFT JOIN %s AS %s ON %s.%s = %s.%s",
				quoteIdent(p.tableName(nav.TargetType())),
				quoteIdent(name),
				quoteIdent(p.owner(prefix[:i])),
				quoteIdent(p.foreignKey(nav)),
				quoteIdent(name),
				quoteIdent(p.referencedKey(nav))))
		}
	}
	return joins, nil
}

var logicalSQL = map[query.LogicalOperator]string{
	query.OpAnd: "AND",
	query.OpOr:  "OR",
}

var arithmeticSQL = map[query.ArithmeticOperator]string{
	query.OpAdd: "+",
	query.OpSub: "-",
	query.OpMul: "*",
	query.OpDiv: "/",
	query.OpMod: "%",
}

var relationalSQL = map[query.RelationalOperator]string{
	query.OpEqual:              "=",
	query.OpNotEqual:           "<>",
	query.OpGreaterThan:        ">",
	query.OpGreaterThanOrEqual: ">=",
	query.OpLessThan:           "<",
	query.OpLessThanOrEqual:    "<=",
}

func (p *Provider) OnLogical(e *query.LogicalExpr, left, right Clause) (Clause, error) {
	op, ok := logicalSQL[e.Operator]
	if !ok {
		return Clause{}, query.InternalError(query.CodeUnexpectedNode, "unknown logical operator %s", e.Operator)
	}
	return infix(left, op, right), nil
}

func (p *Provider) OnArithmetic(e *query.ArithmeticExpr, left, right Clause) (Clause, error) {
	op, ok := arithmeticSQL[e.Operator]
	if !ok {
		return Clause{}, query.InternalError(query.CodeUnexpectedNode, "unknown arithmetic operator %s", e.Operator)
	}
	return infix(left, op, right), nil
}

func (p *Provider) OnRelational(e *query.RelationalExpr, left, right Clause) (Clause, error) {
	op, ok := relationalSQL[e.Operator]
	if !ok {
		return Clause{}, query.InternalError(query.CodeUnexpectedNode, "unknown relational operator %s", e.Operator)
	}

	if isNull(e.Left) || isNull(e.Right) {
		operand := left
		if isNull(e.Left) {
			operand = right
		}
		switch e.Operator {
		case query.OpEqual:
			return compose("({0} IS NULL)", operand), nil
		case query.OpNotEqual:
			return compose("({0} IS NOT NULL)", operand), nil
		}
		return Clause{}, query.InternalError(query.CodeUnexpectedNode, "operator %s applied to null", e.Operator)
	}

	// strcmp(a, b) op 0 and guidEqual(a, b) op true both reduce to a op b.
	if len(left.operands) == 2 {
		return infix(left.operands[0], op, left.operands[1]), nil
	}
	return infix(left, op, right), nil
}

func isNull(e query.Expression) bool {
	c, ok := e.(*query.ConstantExpr)
	return ok && c.IsNull()
}

func (p *Provider) OnUnary(e *query.UnaryExpr, child Clause) (Clause, error) {
	switch e.Operator {
	case query.OpNot:
		return compose("(NOT {0})", child), nil
	case query.OpNegate:
		return compose("(-{0})", child), nil
	}
	return Clause{}, query.InternalError(query.CodeUnexpectedNode, "unknown unary operator %s", e.Operator)
}

func (p *Provider) OnConstant(e *query.ConstantExpr) (Clause, error) {
	if e.IsNull() || e.Value == nil {
		return raw("NULL"), nil
	}
	placeholder := "?"
	if p.dialect == Postgres && e.Type() == edm.String {
		// Postgres cannot infer parameter types inside text functions.
		placeholder = "CAST(? AS TEXT)"
	}
	return Clause{SQL: placeholder, Args: []interface{}{e.Value}}, nil
}

func (p *Provider) OnPropertyAccess(e *query.PropertyAccessExpr) (Clause, error) {
	path := e.Path()
	n := 0
	for n < len(path) && path[n].Kind().IsNavigation() {
		n++
	}

	if n == len(path) {
		// The path ends on a navigation property; compare its foreign key.
		nav := path[n-1]
		if nav.Kind() != metadata.ResourceReference {
			return Clause{}, fmt.Errorf("%w: collection %s", ErrUnsupported, e.PathKey())
		}
		return raw(quoteIdent(p.owner(path[:n-1])) + "." + quoteIdent(p.foreignKey(nav))), nil
	}

	rest := path[n:]
	leaf := rest[len(rest)-1]
	if leaf.Kind() != metadata.PrimitiveProperty {
		return Clause{}, fmt.Errorf("%w: %s is not a column", ErrUnsupported, e.PathKey())
	}
	var column strings.Builder
	for _, prop := range rest[:len(rest)-1] {
		if prop.Kind() != metadata.ComplexProperty {
			return Clause{}, fmt.Errorf("%w: navigation %s below a complex property", ErrUnsupported, e.PathKey())
		}
		column.WriteString(p.naming.ColumnName("", prop.Name()))
		column.WriteString("_")
	}
	column.WriteString(p.columnName(leaf))

	return raw(quoteIdent(p.owner(path[:n])) + "." + quoteIdent(column.String())), nil
}

// functionSQL holds templates shared by all dialects; {N} is argument N.
var functionSQL = map[string]string{
	query.FuncEndsWith:    "(SUBSTR({0}, LENGTH({0}) - LENGTH({1}) + 1) = {1})",
	query.FuncStartsWith:  "(SUBSTR({0}, 1, LENGTH({1})) = {1})",
	query.FuncReplace:     "REPLACE({0}, {1}, {2})",
	query.FuncToLower:     "LOWER({0})",
	query.FuncToUpper:     "UPPER({0})",
	query.FuncTrim:        "TRIM({0})",
	query.FuncConcat:      "({0} || {1})",
	query.FuncLength:      "LENGTH({0})",
	query.FuncRound:       "ROUND({0})",
	query.FuncIsNull:      "({0} IS NULL)",
	query.FuncStrCmp:      "(CASE WHEN {0} < {1} THEN -1 WHEN {0} > {1} THEN 1 ELSE 0 END)",
	query.FuncDateTimeCmp: "(CASE WHEN {0} < {1} THEN -1 WHEN {0} > {1} THEN 1 ELSE 0 END)",
	query.FuncGuidEqual:   "({0} = {1})",
	query.FuncBinaryEqual: "({0} = {1})",
}

var sqliteFunctionSQL = map[string]string{
	query.FuncSubstringOf: "(INSTR({1}, {0}) > 0)",
	query.FuncIndexOf:     "(INSTR({0}, {1}) - 1)",
	query.FuncCeiling:     "(CASE WHEN {0} = CAST({0} AS INTEGER) THEN {0} ELSE CAST({0} AS INTEGER) + (CASE WHEN {0} > 0 THEN 1 ELSE 0 END) END)",
	query.FuncFloor:       "(CASE WHEN {0} = CAST({0} AS INTEGER) THEN {0} ELSE CAST({0} AS INTEGER) - (CASE WHEN {0} < 0 THEN 1 ELSE 0 END) END)",
}

var postgresFunctionSQL = map[string]string{
	query.FuncSubstringOf: "(POSITION({0} IN {1}) > 0)",
	query.FuncIndexOf:     "(POSITION({1} IN {0}) - 1)",
	query.FuncCeiling:     "CEIL({0})",
	query.FuncFloor:       "FLOOR({0})",
}

var dateParts = map[string]string{
	query.FuncYear:   "YEAR",
	query.FuncMonth:  "MONTH",
	query.FuncDay:    "DAY",
	query.FuncHour:   "HOUR",
	query.FuncMinute: "MINUTE",
	query.FuncSecond: "SECOND",
}

func (p *Provider) functionTemplate(fn *query.FunctionDescriptor) (string, bool) {
	if field, ok := dateParts[fn.Name]; ok {
		return p.dialect.datePartSQL(field), true
	}
	if fn.Name == query.FuncSubstring {
		switch {
		case p.dialect == Postgres && fn.Arity() == 3:
			return "SUBSTRING({0} FROM {1} + 1 FOR {2})", true
		case p.dialect == Postgres:
			return "SUBSTRING({0} FROM {1} + 1)", true
		case fn.Arity() == 3:
			return "SUBSTR({0}, {1} + 1, {2})", true
		default:
			return "SUBSTR({0}, {1} + 1)", true
		}
	}
	dialectSQL := sqliteFunctionSQL
	if p.dialect == Postgres {
		dialectSQL = postgresFunctionSQL
	}
	if tmpl, ok := dialectSQL[fn.Name]; ok {
		return tmpl, true
	}
	tmpl, ok := functionSQL[fn.Name]
	return tmpl, ok
}

func (p *Provider) OnFunctionCall(e *query.FunctionCallExpr, args []Clause) (Clause, error) {
	tmpl, ok := p.functionTemplate(e.Function)
	if !ok {
		return Clause{}, query.InternalError(query.CodeUnmappedFunction, "no SQL mapping for function %s", e.Function.Prototype())
	}
	if len(args) != e.Function.Arity() {
		return Clause{}, query.InternalError(query.CodeUnexpectedNode, "%s called with %d arguments", e.Function.Name, len(args))
	}
	out := compose(tmpl, args...)
	switch e.Function.Name {
	case query.FuncStrCmp, query.FuncDateTimeCmp, query.FuncGuidEqual, query.FuncBinaryEqual:
		out.operands = []Clause{args[0], args[1]}
	}
	return out, nil
}
