package query

import (
	"strings"
	"testing"

	"github.com/nlstn/go-odata-filter/internal/edm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullGuards(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "non-nullable root property needs no guard",
			input: "Name eq 'x'",
			want:  "eq(strcmp(Name, 'x'), 0)",
		},
		{
			name:  "navigation path guards parent and leaf",
			input: "Category/Name eq 'x'",
			want:  "and(and(not(is_null(Category)), not(is_null(Category/Name))), eq(strcmp(Category/Name, 'x'), 0))",
		},
		{
			name:  "deep path guards every prefix",
			input: "Category/Supplier/Country eq 'NL'",
			want: "and(and(and(not(is_null(Category)), not(is_null(Category/Supplier))), " +
				"not(is_null(Category/Supplier/Country))), eq(strcmp(Category/Supplier/Country, 'NL'), 0))",
		},
		{
			name:  "complex path",
			input: "Address/City eq 'x'",
			want:  "and(and(not(is_null(Address)), not(is_null(Address/City))), eq(strcmp(Address/City, 'x'), 0))",
		},
		{
			name:  "is_null does not guard its own argument",
			input: "Category/Name eq null",
			want:  "and(not(is_null(Category)), is_null(Category/Name))",
		},
		{
			name:  "not is_null",
			input: "Category/Name ne null",
			want:  "and(not(is_null(Category)), not(is_null(Category/Name)))",
		},
		{
			name:  "and merges and deduplicates",
			input: "Category/Name eq 'x' and Category/ID gt 1",
			want: "and(and(and(not(is_null(Category)), not(is_null(Category/Name))), not(is_null(Category/ID))), " +
				"and(eq(strcmp(Category/Name, 'x'), 0), gt(Category/ID, 1)))",
		},
		{
			name:  "or guards each side locally",
			input: "Category/Name eq 'x' or Price gt 1",
			want: "or(and(and(not(is_null(Category)), not(is_null(Category/Name))), eq(strcmp(Category/Name, 'x'), 0)), " +
				"gt(Price, 1))",
		},
		{
			name:  "or below and is not hoisted",
			input: "Price gt 1 and (Category/ID eq 1 or Category/ID eq 2)",
			want: "and(gt(Price, 1), or(" +
				"and(and(not(is_null(Category)), not(is_null(Category/ID))), eq(Category/ID, 1)), " +
				"and(and(not(is_null(Category)), not(is_null(Category/ID))), eq(Category/ID, 2))))",
		},
		{
			name:  "not propagates guards",
			input: "not (Category/ID gt 1)",
			want:  "and(and(not(is_null(Category)), not(is_null(Category/ID))), not(gt(Category/ID, 1)))",
		},
		{
			name:  "arithmetic propagates guards",
			input: "Category/ID add Price gt 2",
			want:  "and(and(not(is_null(Category)), not(is_null(Category/ID))), gt(add(Category/ID, Price), 2))",
		},
		{
			name:  "negate propagates guards",
			input: "-Category/ID lt 0",
			want:  "and(and(not(is_null(Category)), not(is_null(Category/ID))), lt(neg(Category/ID), 0))",
		},
		{
			name:  "function at root",
			input: "startswith(Category/Name, 'a')",
			want:  "and(and(not(is_null(Category)), not(is_null(Category/Name))), startswith(Category/Name, 'a'))",
		},
		{
			name:  "function arguments merge",
			input: "concat(Category/Name, Category/Supplier/Name) eq 'x'",
			want: "and(and(and(and(not(is_null(Category)), not(is_null(Category/Name))), not(is_null(Category/Supplier))), " +
				"not(is_null(Category/Supplier/Name))), eq(strcmp(concat(Category/Name, Category/Supplier/Name), 'x'), 0))",
		},
		{
			name:  "boolean navigation property at root",
			input: "Category/Active",
			want:  "and(and(not(is_null(Category)), not(is_null(Category/Active))), Category/Active)",
		},
		{
			name:  "nullable root property guards itself",
			input: "Rating gt 3",
			want:  "and(not(is_null(Rating)), gt(Rating, 3))",
		},
		{
			name:  "nullable root property in arithmetic",
			input: "Rating add 1 eq 2",
			want:  "and(not(is_null(Rating)), eq(add(Rating, 1), 2))",
		},
		{
			name:  "null comparison of nullable root property",
			input: "Rating eq null",
			want:  "is_null(Rating)",
		},
		{
			name:  "nullable root property below or",
			input: "Rating gt 3 or Price gt 1",
			want:  "or(and(not(is_null(Rating)), gt(Rating, 3)), gt(Price, 1))",
		},
		{
			name:  "or at root without paths is unchanged",
			input: "Price gt 1 or Discontinued",
			want:  "or(gt(Price, 1), Discontinued)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mustParse(t, tt.input, ParserOptions{})
			assert.Equal(t, tt.want, Format(result.Root))
			assert.Same(t, edm.Boolean, result.Root.Type())
		})
	}
}

func TestNullGuardsSkippedForCustomProvider(t *testing.T) {
	result := mustParse(t, "Category/Name eq 'x' or Category/Supplier/ID eq 1", custom)
	assert.Equal(t, "or(eq(strcmp(Category/Name, 'x'), 0), eq(Category/Supplier/ID, 1))", Format(result.Root))
}

func TestRewriteNullabilityLeavesInputUntouched(t *testing.T) {
	parsed := mustParse(t, "Category/Name eq 'x' or Category/ID gt 1", custom)
	before := Format(parsed.Root)

	rewritten, err := rewriteNullability(parsed.Root)
	require.NoError(t, err)
	assert.Equal(t, before, Format(parsed.Root), "input tree changed")
	assert.NotEqual(t, before, Format(rewritten), "rewrite added no guards")
}

func TestRewriteNullabilityRunsOncePerParse(t *testing.T) {
	result := mustParse(t, "Category/Supplier/Name eq 'x'", ParserOptions{})
	formatted := Format(result.Root)
	for _, guard := range []string{"not(is_null(Category))", "not(is_null(Category/Supplier))"} {
		assert.Equal(t, 1, strings.Count(formatted, guard), "%s in %s", guard, formatted)
	}
}

type unknownExpr struct{}

func (unknownExpr) Type() *edm.PrimitiveType { return edm.Boolean }
func (unknownExpr) exprNode()                {}

func TestRewriteNullabilityUnknownNode(t *testing.T) {
	_, err := rewriteNullability(NewLogical(OpAnd, unknownExpr{}, NewConstant(true, edm.Boolean)))
	assertFilterError(t, err, CodeUnexpectedNode, -1)
	assert.ErrorIs(t, err, ErrInternal)
}
