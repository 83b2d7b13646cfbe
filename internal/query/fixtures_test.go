package query

import (
	"testing"

	"github.com/nlstn/go-odata-filter/internal/edm"
	"github.com/nlstn/go-odata-filter/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// productType returns a small model:
//
//	Product  -> Category (reference), Orders (set), Address (complex), Tags (bag), Rating (nullable)
//	Category -> Supplier (reference), Products (set)
func productType() *metadata.Type {
	product := metadata.NewEntityType("Product")
	category := metadata.NewEntityType("Category")
	supplier := metadata.NewEntityType("Supplier")
	order := metadata.NewEntityType("Order")
	address := metadata.NewComplexType("Address")

	address.
		AddPrimitive("Street", edm.String).
		AddPrimitive("City", edm.String)

	supplier.
		AddPrimitive("ID", edm.Int32).
		AddPrimitive("Name", edm.String).
		AddPrimitive("Country", edm.String)

	category.
		AddPrimitive("ID", edm.Int32).
		AddPrimitive("Name", edm.String).
		AddPrimitive("Active", edm.Boolean).
		AddReference("Supplier", supplier).
		AddReferenceSet("Products", product)

	order.
		AddPrimitive("ID", edm.Int32).
		AddPrimitive("Total", edm.Decimal)

	product.
		AddPrimitive("ID", edm.Int32).
		AddPrimitive("Name", edm.String).
		AddPrimitive("Price", edm.Int32).
		AddPrimitive("Quantity", edm.Int16).
		AddPrimitive("Stock", edm.Int64).
		AddPrimitive("Weight", edm.Double).
		AddPrimitive("Ratio", edm.Single).
		AddPrimitive("Cost", edm.Decimal).
		AddPrimitive("Discontinued", edm.Boolean).
		AddPrimitive("Released", edm.DateTime).
		AddPrimitive("CustomerID", edm.String).
		AddPrimitive("Token", edm.Guid).
		AddPrimitive("Thumbnail", edm.Binary).
		AddComplex("Address", address).
		AddReference("Category", category).
		AddReferenceSet("Orders", order).
		AddBag("Tags", edm.String)
	_ = product.AddProperty(metadata.NewProperty("Rating", metadata.PrimitiveProperty, edm.Int32, nil).WithNullable(true))

	return product
}

func mustParse(t *testing.T, text string, opts ParserOptions) *ParseResult {
	t.Helper()
	result, err := ParseFilter(text, productType(), opts)
	require.NoError(t, err, "ParseFilter(%q)", text)
	return result
}

func assertFilterError(t *testing.T, err error, code ErrorCode, position int) {
	t.Helper()
	require.Error(t, err, "expected %s error", code)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, code, fe.Code, "%v", err)
	if position >= 0 {
		assert.Equal(t, position, fe.Position, "%v", err)
	}
}
