// Package exprlang renders filter expressions into the expr-lang language and
// evaluates the rendered predicates against Go values.
package exprlang

import (
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nlstn/go-odata-filter/internal/edm"
	"github.com/nlstn/go-odata-filter/internal/query"
)

// ItemVariable is the name the rendered predicate uses for the filtered item.
const ItemVariable = "item"

// Provider renders an expression tree into expr-lang source. It expects the
// tree produced for the default provider, i.e. with null guards in place.
type Provider struct{}

var _ query.Provider[string] = Provider{}

// Render processes root into expr-lang source.
func Render(root query.Expression) (string, error) {
	return query.Process[string](root, Provider{})
}

var logicalOperators = map[query.LogicalOperator]string{
	query.OpAnd: "&&",
	query.OpOr:  "||",
}

var relationalOperators = map[query.RelationalOperator]string{
	query.OpEqual:              "==",
	query.OpNotEqual:           "!=",
	query.OpGreaterThan:        ">",
	query.OpGreaterThanOrEqual: ">=",
	query.OpLessThan:           "<",
	query.OpLessThanOrEqual:    "<=",
}

var arithmeticOperators = map[query.ArithmeticOperator]string{
	query.OpAdd: "+",
	query.OpSub: "-",
	query.OpMul: "*",
	query.OpDiv: "/",
	query.OpMod: "%",
}

// decimalHelpers name the evaluator helpers for Decimal arithmetic.
var decimalHelpers = map[query.ArithmeticOperator]string{
	query.OpAdd: "decimal_add",
	query.OpSub: "decimal_sub",
	query.OpMul: "decimal_mul",
	query.OpDiv: "decimal_div",
	query.OpMod: "decimal_mod",
}

func (Provider) OnLogical(e *query.LogicalExpr, left, right string) (string, error) {
	op, ok := logicalOperators[e.Operator]
	if !ok {
		return "", query.InternalError(query.CodeUnexpectedNode, "unknown logical operator %s", e.Operator)
	}
	return "(" + left + " " + op + " " + right + ")", nil
}

func (Provider) OnArithmetic(e *query.ArithmeticExpr, left, right string) (string, error) {
	op, ok := arithmeticOperators[e.Operator]
	if !ok {
		return "", query.InternalError(query.CodeUnexpectedNode, "unknown arithmetic operator %s", e.Operator)
	}
	typ := e.Type()
	switch {
	case typ == edm.Decimal:
		return call(decimalHelpers[e.Operator], left, right), nil
	case e.Operator == query.OpDiv && typ.IsIntegral():
		// expr-lang's "/" always yields a float.
		return call("idiv", left, right), nil
	case e.Operator == query.OpMod && typ.IsIntegral():
		return call("imod", left, right), nil
	case e.Operator == query.OpMod && typ.IsFloating():
		return call("fmod", left, right), nil
	}
	return "(" + left + " " + op + " " + right + ")", nil
}

func (Provider) OnRelational(e *query.RelationalExpr, left, right string) (string, error) {
	op, ok := relationalOperators[e.Operator]
	if !ok {
		return "", query.InternalError(query.CodeUnexpectedNode, "unknown relational operator %s", e.Operator)
	}
	if e.Left.Type() == edm.Decimal || e.Right.Type() == edm.Decimal {
		return "(" + call("decimal_cmp", left, right) + " " + op + " 0)", nil
	}
	return "(" + left + " " + op + " " + right + ")", nil
}

func (Provider) OnUnary(e *query.UnaryExpr, child string) (string, error) {
	switch e.Operator {
	case query.OpNot:
		return "!" + child, nil
	case query.OpNegate:
		if e.Type() == edm.Decimal {
			return call("decimal_neg", child), nil
		}
		return "(-" + child + ")", nil
	}
	return "", query.InternalError(query.CodeUnexpectedNode, "unknown unary operator %s", e.Operator)
}

func (Provider) OnConstant(e *query.ConstantExpr) (string, error) {
	if e.IsNull() || e.Value == nil {
		return "nil", nil
	}
	switch v := e.Value.(type) {
	case string:
		return strconv.Quote(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int64:
		if v == math.MinInt64 {
			// 9223372036854775808 overflows before the minus applies.
			return "(-9223372036854775807 - 1)", nil
		}
		return strconv.FormatInt(v, 10), nil
	case uint8, int8, int16, int32, int:
		return fmt.Sprint(v), nil
	case float32:
		return formatFloat(float64(v), 32), nil
	case float64:
		return formatFloat(v, 64), nil
	case decimal.Decimal:
		return call("decimal", strconv.Quote(v.String())), nil
	case time.Time:
		return call("datetime", strconv.Quote(v.UTC().Format(time.RFC3339Nano))), nil
	case uuid.UUID:
		return call("guid", strconv.Quote(v.String())), nil
	case []byte:
		return call("binary", strconv.Quote(hex.EncodeToString(v))), nil
	}
	return "", query.InternalError(query.CodeUnexpectedNode, "no rendering for %s constant of Go type %T", e.Type(), e.Value)
}

func formatFloat(v float64, bits int) string {
	switch {
	case math.IsNaN(v):
		return "nan()"
	case math.IsInf(v, 1):
		return "inf(1)"
	case math.IsInf(v, -1):
		return "inf(-1)"
	}
	s := strconv.FormatFloat(v, 'f', -1, bits)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reserved words of expr-lang that cannot follow a member dot.
var reserved = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "matches": true,
	"contains": true, "startsWith": true, "endsWith": true, "let": true,
	"nil": true, "true": true, "false": true,
}

func (Provider) OnPropertyAccess(e *query.PropertyAccessExpr) (string, error) {
	var b strings.Builder
	b.WriteString(ItemVariable)
	for _, name := range e.PathNames() {
		if identifierPattern.MatchString(name) && !reserved[name] {
			b.WriteString(".")
			b.WriteString(name)
			continue
		}
		b.WriteString("[")
		b.WriteString(strconv.Quote(name))
		b.WriteString("]")
	}
	return b.String(), nil
}

// functionMappings maps catalog names to expr-lang builtins or to helpers
// registered by the evaluator. concat and the rounding functions are handled
// separately.
var functionMappings = map[string]string{
	query.FuncEndsWith:    "endswith",
	query.FuncStartsWith:  "startswith",
	query.FuncSubstringOf: "substringof",
	query.FuncIndexOf:     "indexof",
	query.FuncReplace:     "replace",
	query.FuncToLower:     "lower",
	query.FuncToUpper:     "upper",
	query.FuncTrim:        "trim",
	query.FuncSubstring:   "substring",
	query.FuncLength:      "length",
	query.FuncYear:        "year",
	query.FuncMonth:       "month",
	query.FuncDay:         "day",
	query.FuncHour:        "hour",
	query.FuncMinute:      "minute",
	query.FuncSecond:      "second",
	query.FuncStrCmp:      "strcmp",
	query.FuncDateTimeCmp: "datetime_cmp",
	query.FuncGuidEqual:   "guid_equal",
	query.FuncBinaryEqual: "binary_equal",
	query.FuncIsNull:      "is_null",
}

// roundingMappings are keyed by catalog name; Double overloads use the
// expr-lang builtins, Decimal overloads use helpers.
var roundingMappings = map[string][2]string{
	query.FuncRound:   {"round", "decimal_round"},
	query.FuncCeiling: {"ceil", "decimal_ceiling"},
	query.FuncFloor:   {"floor", "decimal_floor"},
}

func (Provider) OnFunctionCall(e *query.FunctionCallExpr, args []string) (string, error) {
	name := e.Function.Name
	if name == query.FuncConcat {
		return "(" + strings.Join(args, " + ") + ")", nil
	}
	if pair, ok := roundingMappings[name]; ok {
		if e.Function.ReturnType == edm.Decimal {
			return call(pair[1], args...), nil
		}
		return call(pair[0], args...), nil
	}
	target, ok := functionMappings[name]
	if !ok {
		return "", query.InternalError(query.CodeUnmappedFunction, "no expr-lang mapping for function %s", e.Function.Prototype())
	}
	return call(target, args...), nil
}

func call(name string, args ...string) string {
	return name + "(" + strings.Join(args, ", ") + ")"
}
