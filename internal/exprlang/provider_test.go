package exprlang

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlstn/go-odata-filter/internal/edm"
	"github.com/nlstn/go-odata-filter/internal/metadata"
	"github.com/nlstn/go-odata-filter/internal/query"
)

func productModel() *metadata.Type {
	product := metadata.NewEntityType("Product")
	category := metadata.NewEntityType("Category")
	supplier := metadata.NewEntityType("Supplier")
	address := metadata.NewComplexType("Address")

	address.AddPrimitive("City", edm.String)
	supplier.
		AddPrimitive("ID", edm.Int32).
		AddPrimitive("Name", edm.String)
	category.
		AddPrimitive("ID", edm.Int32).
		AddPrimitive("Name", edm.String).
		AddReference("Supplier", supplier)
	product.
		AddPrimitive("ID", edm.Int32).
		AddPrimitive("Name", edm.String).
		AddPrimitive("Price", edm.Int32).
		AddPrimitive("Weight", edm.Double).
		AddPrimitive("Cost", edm.Decimal).
		AddPrimitive("Discontinued", edm.Boolean).
		AddPrimitive("Released", edm.DateTime).
		AddPrimitive("Token", edm.Guid).
		AddPrimitive("Thumbnail", edm.Binary).
		AddPrimitive("in", edm.Int32).
		AddComplex("Address", address).
		AddReference("Category", category)
	return product
}

func render(t *testing.T, filter string) string {
	t.Helper()
	result, err := query.ParseFilter(filter, productModel(), query.ParserOptions{})
	require.NoError(t, err, "parse %q", filter)
	source, err := Render(result.Root)
	require.NoError(t, err, "render %q", filter)
	return source
}

func TestRender(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   string
	}{
		{"integer comparison", "Price gt 18", "(item.Price > 18)"},
		{"string comparison", "Name eq 'x'", `(strcmp(item.Name, "x") == 0)`},
		{"escaped string", `Name eq 'say "hi"'`, `(strcmp(item.Name, "say \"hi\"") == 0)`},
		{
			"guarded navigation",
			"Category/Name eq 'x'",
			`((!is_null(item.Category) && !is_null(item.Category.Name)) && (strcmp(item.Category.Name, "x") == 0))`,
		},
		{"null check", "Category eq null", "is_null(item.Category)"},
		{"not null check", "Category ne null", "!is_null(item.Category)"},
		{"decimal comparison", "Cost gt 1.5m", `(decimal_cmp(item.Cost, decimal("1.5")) > 0)`},
		{"decimal arithmetic", "Cost add 1m lt 3m", `(decimal_cmp(decimal_add(item.Cost, decimal("1")), decimal("3")) < 0)`},
		{"integer division", "Price div 2 eq 3", "(idiv(item.Price, 2) == 3)"},
		{"integer modulo", "Price mod 2 eq 1", "(imod(item.Price, 2) == 1)"},
		{"smallest int64", "Price gt -9223372036854775808L", "(item.Price > (-9223372036854775807 - 1))"},
		{
			"datetime comparison",
			"Released gt datetime'2020-01-01'",
			`(datetime_cmp(item.Released, datetime("2020-01-01T00:00:00Z")) > 0)`,
		},
		{
			"guid equality",
			"Token eq guid'00000000-0000-0000-0000-000000000001'",
			`(guid_equal(item.Token, guid("00000000-0000-0000-0000-000000000001")) == true)`,
		},
		{"binary equality", "Thumbnail ne X'0A0B'", `(binary_equal(item.Thumbnail, binary("0a0b")) != true)`},
		{"not", "not Discontinued", "!item.Discontinued"},
		{"negate", "-Price lt 0", "((-item.Price) < 0)"},
		{"logical", "Price gt 1 or Discontinued", "((item.Price > 1) || item.Discontinued)"},
		{"concat", "concat(Name, 'a') eq 'ba'", `(strcmp((item.Name + "a"), "ba") == 0)`},
		{"builtin", "tolower(Name) eq 'a'", `(strcmp(lower(item.Name), "a") == 0)`},
		{"double round", "round(Weight) eq 2", "(round(item.Weight) == 2)"},
		{"decimal round", "round(Cost) eq 2m", `(decimal_cmp(decimal_round(item.Cost), decimal("2")) == 0)`},
		{"substring", "substring(Name, 1, 2) eq 'b'", `(strcmp(substring(item.Name, 1, 2), "b") == 0)`},
		{"reserved property name", "in eq 1", `(item["in"] == 1)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.filter))
		})
	}
}

func TestRenderUnmappedFunction(t *testing.T) {
	fn := &query.FunctionDescriptor{
		Name:       "soundex",
		ReturnType: edm.Boolean,
		ParamTypes: []*edm.PrimitiveType{edm.String},
	}
	_, err := Render(query.NewFunctionCall(fn, query.NewConstant("x", edm.String)))
	require.Error(t, err)
	assert.Equal(t, query.CodeUnmappedFunction, query.CodeOf(err))
	assert.ErrorIs(t, err, query.ErrInternal)
}

func TestRenderSpecialFloats(t *testing.T) {
	tests := []struct {
		value interface{}
		typ   *edm.PrimitiveType
		want  string
	}{
		{1.5, edm.Double, "1.5"},
		{float64(2), edm.Double, "2.0"},
		{float32(0.25), edm.Single, "0.25"},
		{math.Inf(1), edm.Double, "inf(1)"},
		{math.Inf(-1), edm.Double, "inf(-1)"},
		{math.NaN(), edm.Double, "nan()"},
		{nil, edm.Null, "nil"},
	}
	for _, tt := range tests {
		got, err := Provider{}.OnConstant(query.NewConstant(tt.value, tt.typ))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
