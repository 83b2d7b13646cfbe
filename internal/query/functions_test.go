package query

import (
	"testing"

	"github.com/nlstn/go-odata-filter/internal/edm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantOf(typ *edm.PrimitiveType) Expression {
	return NewConstant(nil, typ)
}

func TestResolveByName(t *testing.T) {
	candidates, err := ResolveByName("substring", 0)
	require.NoError(t, err)
	assert.Len(t, candidates, 2, "substring overloads")

	for _, name := range []string{"strcmp", "is_null", "guidEqual", "SubString", "contains"} {
		_, err := ResolveByName(name, 7)
		assertFilterError(t, err, CodeUnknownFunction, 7)
	}
}

func TestCatalogSignatures(t *testing.T) {
	tests := []struct {
		name string
		args []*edm.PrimitiveType
		ret  *edm.PrimitiveType
	}{
		{"endswith", []*edm.PrimitiveType{edm.String, edm.String}, edm.Boolean},
		{"startswith", []*edm.PrimitiveType{edm.String, edm.String}, edm.Boolean},
		{"substringof", []*edm.PrimitiveType{edm.String, edm.String}, edm.Boolean},
		{"indexof", []*edm.PrimitiveType{edm.String, edm.String}, edm.Int32},
		{"replace", []*edm.PrimitiveType{edm.String, edm.String, edm.String}, edm.String},
		{"tolower", []*edm.PrimitiveType{edm.String}, edm.String},
		{"toupper", []*edm.PrimitiveType{edm.String}, edm.String},
		{"trim", []*edm.PrimitiveType{edm.String}, edm.String},
		{"substring", []*edm.PrimitiveType{edm.String, edm.Int32}, edm.String},
		{"substring", []*edm.PrimitiveType{edm.String, edm.Int32, edm.Int32}, edm.String},
		{"concat", []*edm.PrimitiveType{edm.String, edm.String}, edm.String},
		{"length", []*edm.PrimitiveType{edm.String}, edm.Int32},
		{"year", []*edm.PrimitiveType{edm.DateTime}, edm.Int32},
		{"month", []*edm.PrimitiveType{edm.DateTime}, edm.Int32},
		{"day", []*edm.PrimitiveType{edm.DateTime}, edm.Int32},
		{"hour", []*edm.PrimitiveType{edm.DateTime}, edm.Int32},
		{"minute", []*edm.PrimitiveType{edm.DateTime}, edm.Int32},
		{"second", []*edm.PrimitiveType{edm.DateTime}, edm.Int32},
		{"round", []*edm.PrimitiveType{edm.Decimal}, edm.Decimal},
		{"round", []*edm.PrimitiveType{edm.Double}, edm.Double},
		{"ceiling", []*edm.PrimitiveType{edm.Decimal}, edm.Decimal},
		{"ceiling", []*edm.PrimitiveType{edm.Double}, edm.Double},
		{"floor", []*edm.PrimitiveType{edm.Decimal}, edm.Decimal},
		{"floor", []*edm.PrimitiveType{edm.Double}, edm.Double},
	}

	for _, tt := range tests {
		args := make([]Expression, len(tt.args))
		for i, a := range tt.args {
			args[i] = constantOf(a)
		}
		t.Run(tt.name+"/"+argumentTypes(args), func(t *testing.T) {
			candidates, err := ResolveByName(tt.name, 0)
			require.NoError(t, err)
			fn, err := ResolveOverload(candidates, args, 0)
			require.NoError(t, err)
			assert.Same(t, tt.ret, fn.ReturnType)
			assert.Equal(t, len(tt.args), fn.Arity())
		})
	}
}

func TestResolveOverloadWidening(t *testing.T) {
	rounds, _ := ResolveByName("round", 0)

	tests := []struct {
		name string
		arg  *edm.PrimitiveType
		want *edm.PrimitiveType
	}{
		{"exact decimal", edm.Decimal, edm.Decimal},
		{"exact double", edm.Double, edm.Double},
		{"single widens to double", edm.Single, edm.Double},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := ResolveOverload(rounds, []Expression{constantOf(tt.arg)}, 0)
			require.NoError(t, err)
			assert.Same(t, tt.want, fn.ParamTypes[0], "selected %s", fn.Prototype())
		})
	}

	substrings, _ := ResolveByName("substring", 0)
	fn, err := ResolveOverload(substrings, []Expression{constantOf(edm.String), constantOf(edm.Int16)}, 0)
	require.NoError(t, err, "substring(String, Int16)")
	assert.Equal(t, 2, fn.Arity(), "selected %s", fn.Prototype())
}

func TestResolveOverloadAmbiguous(t *testing.T) {
	rounds, _ := ResolveByName("round", 0)

	// Int32 widens to both Decimal and Double with no exact match.
	_, err := ResolveOverload(rounds, []Expression{constantOf(edm.Int32)}, 4)
	assertFilterError(t, err, CodeAmbiguousFunctionCall, 4)
	assert.ErrorContains(t, err, "round(Edm.Decimal) Edm.Decimal", "the message should list the candidates")

	_, err = ResolveOverload(rounds, []Expression{constantOf(edm.Null)}, 4)
	assertFilterError(t, err, CodeAmbiguousFunctionCall, 4)
}

func TestResolveOverloadNoMatch(t *testing.T) {
	tests := []struct {
		name string
		fn   string
		args []*edm.PrimitiveType
	}{
		{"wrong arity", "length", []*edm.PrimitiveType{edm.String, edm.String}},
		{"no arguments", "tolower", nil},
		{"wrong type", "year", []*edm.PrimitiveType{edm.String}},
		{"narrowing", "substring", []*edm.PrimitiveType{edm.String, edm.Int64}},
		{"resource argument", "floor", []*edm.PrimitiveType{edm.Resource}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates, _ := ResolveByName(tt.fn, 0)
			args := make([]Expression, len(tt.args))
			for i, a := range tt.args {
				args[i] = constantOf(a)
			}
			_, err := ResolveOverload(candidates, args, 3)
			assertFilterError(t, err, CodeUnknownFunction, -1)
			assert.ErrorContains(t, err, tt.fn+"(", "the message should name the candidate prototypes")
		})
	}
}

func TestOperatorFunctions(t *testing.T) {
	tests := []struct {
		typ  *edm.PrimitiveType
		want *FunctionDescriptor
	}{
		{edm.String, StrCmp},
		{edm.DateTime, DateTimeCmp},
		{edm.Guid, GuidEqual},
		{edm.Binary, BinaryEqual},
		{edm.Int32, nil},
		{edm.Boolean, nil},
		{edm.Decimal, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, comparatorFor(tt.typ), "comparatorFor(%s)", tt.typ)
	}

	check := IsNullCheck(edm.String)
	assert.Equal(t, FuncIsNull, check.Name)
	assert.Same(t, edm.Boolean, check.ReturnType)
	assert.Same(t, edm.String, check.ParamTypes[0])
	assert.True(t, IsNullCheckCall(NewFunctionCall(IsNullCheck(edm.Resource), constantOf(edm.Null))))
}
