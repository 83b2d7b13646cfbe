package query

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nlstn/go-odata-filter/internal/edm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// infixProvider renders a fully parenthesised infix form and records the
// order of its callbacks.
type infixProvider struct {
	calls []string
	fail  string
}

func (p *infixProvider) record(kind string) error {
	p.calls = append(p.calls, kind)
	if kind == p.fail {
		return errors.New("provider failure")
	}
	return nil
}

func (p *infixProvider) OnLogical(e *LogicalExpr, left, right string) (string, error) {
	return "(" + left + " " + e.Operator.String() + " " + right + ")", p.record("logical")
}

func (p *infixProvider) OnArithmetic(e *ArithmeticExpr, left, right string) (string, error) {
	return "(" + left + " " + e.Operator.String() + " " + right + ")", p.record("arithmetic")
}

func (p *infixProvider) OnRelational(e *RelationalExpr, left, right string) (string, error) {
	return "(" + left + " " + e.Operator.String() + " " + right + ")", p.record("relational")
}

func (p *infixProvider) OnUnary(e *UnaryExpr, child string) (string, error) {
	return e.Operator.String() + child, p.record("unary")
}

func (p *infixProvider) OnConstant(e *ConstantExpr) (string, error) {
	return fmt.Sprint(e.Value), p.record("constant")
}

func (p *infixProvider) OnPropertyAccess(e *PropertyAccessExpr) (string, error) {
	return "it." + strings.Join(e.PathNames(), "."), p.record("property")
}

func (p *infixProvider) OnFunctionCall(e *FunctionCallExpr, args []string) (string, error) {
	if e.Function.Name == FuncLength {
		return "", InternalError(CodeUnmappedFunction, "no mapping for %s", e.Function.Name)
	}
	return e.Function.Name + "(" + strings.Join(args, ", ") + ")", p.record("function")
}

func TestProcessPostOrder(t *testing.T) {
	result := mustParse(t, "Price add 1 gt 2 and not Discontinued", custom)

	p := &infixProvider{}
	got, err := Process[string](result.Root, p)
	require.NoError(t, err)
	assert.Equal(t, "(((it.Price add 1) gt 2) and notit.Discontinued)", got)
	assert.Equal(t, []string{
		"property", "constant", "arithmetic", "constant", "relational",
		"property", "unary", "logical",
	}, p.calls)
}

func TestProcessFunctionCall(t *testing.T) {
	result := mustParse(t, "startswith(Category/Name, 'A')", custom)

	got, err := Process[string](result.Root, &infixProvider{})
	require.NoError(t, err)
	assert.Equal(t, "startswith(it.Category.Name, A)", got)
}

func TestProcessUnmappedFunction(t *testing.T) {
	result := mustParse(t, "length(Name) gt 1", custom)

	_, err := Process[string](result.Root, &infixProvider{})
	assertFilterError(t, err, CodeUnmappedFunction, -1)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestProcessStopsAtFirstError(t *testing.T) {
	result := mustParse(t, "Price gt 1 and Price lt 5", custom)

	p := &infixProvider{fail: "relational"}
	_, err := Process[string](result.Root, p)
	require.Error(t, err)
	assert.Equal(t, []string{"property", "constant", "relational"}, p.calls, "processing must stop after the first relational")
}

func TestProcessUnknownNode(t *testing.T) {
	_, err := Process[string](NewUnary(OpNot, unknownExpr{}), &infixProvider{})
	assertFilterError(t, err, CodeUnexpectedNode, -1)
}

// countingProvider shows that providers may produce non-string artifacts.
type countingProvider struct{}

func (countingProvider) OnLogical(_ *LogicalExpr, l, r int) (int, error)       { return l + r + 1, nil }
func (countingProvider) OnArithmetic(_ *ArithmeticExpr, l, r int) (int, error) { return l + r + 1, nil }
func (countingProvider) OnRelational(_ *RelationalExpr, l, r int) (int, error) { return l + r + 1, nil }
func (countingProvider) OnUnary(_ *UnaryExpr, c int) (int, error)              { return c + 1, nil }
func (countingProvider) OnConstant(*ConstantExpr) (int, error)                 { return 1, nil }
func (countingProvider) OnPropertyAccess(*PropertyAccessExpr) (int, error)     { return 1, nil }
func (countingProvider) OnFunctionCall(_ *FunctionCallExpr, args []int) (int, error) {
	n := 1
	for _, a := range args {
		n += a
	}
	return n, nil
}

func TestProcessGenericArtifact(t *testing.T) {
	root := NewLogical(OpOr,
		NewRelational(OpEqual, NewConstant(int32(1), edm.Int32), NewConstant(int32(2), edm.Int32)),
		NewFunctionCall(IsNullCheck(edm.Null), NewConstant(nil, edm.Null)),
	)
	n, err := Process[int](root, countingProvider{})
	require.NoError(t, err)
	assert.Equal(t, 6, n, "node count")
}
