package odatafilter

import (
	"github.com/nlstn/go-odata-filter/internal/edm"
	"github.com/nlstn/go-odata-filter/internal/metadata"
	"github.com/nlstn/go-odata-filter/internal/query"
	"github.com/nlstn/go-odata-filter/internal/sqlgen"
)

// Metadata model used to describe what a filter may refer to.
type (
	// ResourceType is the type descriptor filters are resolved against.
	// Applications may implement it themselves or use Type.
	ResourceType = metadata.ResourceType
	// ResourceProperty is a property of a ResourceType.
	ResourceProperty = metadata.ResourceProperty
	// StorageHints may be implemented by a ResourceProperty to override the
	// column and join keys used for SQL rendering.
	StorageHints = metadata.StorageHints
	Type         = metadata.Type
	Property     = metadata.Property
	PropertyKind = metadata.PropertyKind
	TypeKind     = metadata.TypeKind

	// SchemaConfig is the declarative form of a set of types, suitable for
	// decoding from YAML or JSON.
	SchemaConfig   = metadata.SchemaConfig
	TypeConfig     = metadata.TypeConfig
	PropertyConfig = metadata.PropertyConfig
	Schema         = metadata.Schema

	PrimitiveType = edm.PrimitiveType
)

const (
	EntityKind  = metadata.EntityKind
	ComplexKind = metadata.ComplexKind

	PrimitiveProperty    = metadata.PrimitiveProperty
	ComplexProperty      = metadata.ComplexProperty
	ResourceReference    = metadata.ResourceReference
	ResourceSetReference = metadata.ResourceSetReference
	BagProperty          = metadata.BagProperty
)

// Primitive types.
var (
	EdmBinary   = edm.Binary
	EdmBoolean  = edm.Boolean
	EdmByte     = edm.Byte
	EdmDateTime = edm.DateTime
	EdmDecimal  = edm.Decimal
	EdmDouble   = edm.Double
	EdmGuid     = edm.Guid
	EdmInt16    = edm.Int16
	EdmInt32    = edm.Int32
	EdmInt64    = edm.Int64
	EdmSByte    = edm.SByte
	EdmSingle   = edm.Single
	EdmString   = edm.String
)

// NewEntityType creates an empty entity type.
func NewEntityType(name string) *Type {
	return metadata.NewEntityType(name)
}

// NewComplexType creates an empty complex type.
func NewComplexType(name string) *Type {
	return metadata.NewComplexType(name)
}

// NewProperty creates a property. primitive is used for primitive and bag
// properties, target for complex and navigation properties.
func NewProperty(name string, kind PropertyKind, primitive *PrimitiveType, target *Type) *Property {
	return metadata.NewProperty(name, kind, primitive, target)
}

// AnalyzeEntity derives an entity type from a Go struct, following the same
// conventions gorm uses for relations and embedded structs.
func AnalyzeEntity(entity interface{}) (*Type, error) {
	return metadata.AnalyzeEntity(entity)
}

// BuildSchema resolves a declarative schema.
func BuildSchema(cfg SchemaConfig) (*Schema, error) {
	return metadata.BuildSchema(cfg)
}

// Expression tree and provider protocol, for applications rendering filters
// into their own target language.
type (
	Expression         = query.Expression
	LogicalExpr        = query.LogicalExpr
	ArithmeticExpr     = query.ArithmeticExpr
	RelationalExpr     = query.RelationalExpr
	UnaryExpr          = query.UnaryExpr
	ConstantExpr       = query.ConstantExpr
	PropertyAccessExpr = query.PropertyAccessExpr
	FunctionCallExpr   = query.FunctionCallExpr
	NavigationPath     = query.NavigationPath

	// Provider renders each kind of expression node into T. See Process.
	Provider[T any] = query.Provider[T]
)

// Dialect selects the SQL flavour produced by CompileSQL.
type Dialect = sqlgen.Dialect

const (
	SQLite   = sqlgen.SQLite
	Postgres = sqlgen.Postgres
)

// ParseDialect resolves a dialect name such as "sqlite" or "postgres".
func ParseDialect(name string) (Dialect, error) {
	return sqlgen.ParseDialect(name)
}
