package metadata

import (
	"fmt"

	"github.com/nlstn/go-odata-filter/internal/edm"
)

// TypeKind distinguishes entity types from complex types.
type TypeKind int

const (
	EntityKind TypeKind = iota
	ComplexKind
)

// PropertyKind describes what a property holds.
type PropertyKind int

const (
	// PrimitiveProperty holds a single primitive value.
	PrimitiveProperty PropertyKind = iota
	// ComplexProperty holds a structured value without identity.
	ComplexProperty
	// ResourceReference navigates to at most one related entity.
	ResourceReference
	// ResourceSetReference navigates to a collection of related entities.
	ResourceSetReference
	// BagProperty holds a collection of primitive or complex values.
	BagProperty
)

func (k PropertyKind) String() string {
	switch k {
	case PrimitiveProperty:
		return "primitive"
	case ComplexProperty:
		return "complex"
	case ResourceReference:
		return "navigation"
	case ResourceSetReference:
		return "navigation-collection"
	case BagProperty:
		return "bag"
	}
	return fmt.Sprintf("PropertyKind(%d)", int(k))
}

// IsNavigation reports whether the property refers to other entities.
func (k PropertyKind) IsNavigation() bool {
	return k == ResourceReference || k == ResourceSetReference
}

// ResourceType is the read-only type descriptor the filter parser resolves
// property names against. Implementations must be safe for concurrent reads.
type ResourceType interface {
	Name() string
	Kind() TypeKind
	ResolveProperty(name string) (ResourceProperty, bool)
}

// ResourceProperty describes one property of a ResourceType.
type ResourceProperty interface {
	Name() string
	Kind() PropertyKind
	// PrimitiveType is the value type of primitive properties and nil otherwise.
	PrimitiveType() *edm.PrimitiveType
	// TargetType is the type reached through complex and navigation
	// properties and nil otherwise.
	TargetType() ResourceType
}

// StorageHints is implemented by properties that know how they are stored.
// Renderers that target a database use it when present.
type StorageHints interface {
	Column() string
	ForeignKey() string
	References() string
}

// NullabilityHint is implemented by properties that know whether their value
// may be null. Properties without the hint are treated as non-nullable.
type NullabilityHint interface {
	Nullable() bool
}

// IsNullable reports whether p declares that it may hold null.
func IsNullable(p ResourceProperty) bool {
	h, ok := p.(NullabilityHint)
	return ok && h.Nullable()
}

// Type is the concrete ResourceType used throughout the module. It is
// populated once at startup and treated as read-only afterwards.
type Type struct {
	name       string
	kind       TypeKind
	table      string
	properties []*Property
	byName     map[string]*Property
}

// NewEntityType creates an empty entity type.
func NewEntityType(name string) *Type {
	return &Type{name: name, kind: EntityKind, byName: make(map[string]*Property)}
}

// NewComplexType creates an empty complex type.
func NewComplexType(name string) *Type {
	return &Type{name: name, kind: ComplexKind, byName: make(map[string]*Property)}
}

func (t *Type) Name() string   { return t.name }
func (t *Type) Kind() TypeKind { return t.kind }

// Table returns the explicit storage table name, or "" to use the naming convention.
func (t *Type) Table() string { return t.table }

// SetTable overrides the storage table name.
func (t *Type) SetTable(table string) *Type {
	t.table = table
	return t
}

// ResolveProperty looks a property up by its exact name.
func (t *Type) ResolveProperty(name string) (ResourceProperty, bool) {
	p, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return p, true
}

// Property returns the concrete property with the given name, or nil.
func (t *Type) Property(name string) *Property {
	return t.byName[name]
}

// Properties returns the properties in declaration order.
func (t *Type) Properties() []*Property {
	return t.properties
}

// AddProperty appends a property. Names must be unique within the type.
func (t *Type) AddProperty(p *Property) error {
	if p == nil || p.name == "" {
		return fmt.Errorf("type %s: property must have a name", t.name)
	}
	if _, exists := t.byName[p.name]; exists {
		return fmt.Errorf("type %s: duplicate property %s", t.name, p.name)
	}
	t.properties = append(t.properties, p)
	t.byName[p.name] = p
	return nil
}

func (t *Type) mustAdd(p *Property) *Type {
	if err := t.AddProperty(p); err != nil {
		panic(err)
	}
	return t
}

// AddPrimitive adds a primitive property. It panics on a duplicate name.
func (t *Type) AddPrimitive(name string, typ *edm.PrimitiveType) *Type {
	return t.mustAdd(&Property{name: name, kind: PrimitiveProperty, primitive: typ})
}

// AddComplex adds a complex-typed property. It panics on a duplicate name.
func (t *Type) AddComplex(name string, target *Type) *Type {
	return t.mustAdd(&Property{name: name, kind: ComplexProperty, target: target})
}

// AddReference adds a single-valued navigation property. It panics on a duplicate name.
func (t *Type) AddReference(name string, target *Type) *Type {
	return t.mustAdd(&Property{name: name, kind: ResourceReference, target: target})
}

// AddReferenceSet adds a collection-valued navigation property. It panics on a duplicate name.
func (t *Type) AddReferenceSet(name string, target *Type) *Type {
	return t.mustAdd(&Property{name: name, kind: ResourceSetReference, target: target})
}

// AddBag adds a collection of primitive values. It panics on a duplicate name.
func (t *Type) AddBag(name string, elem *edm.PrimitiveType) *Type {
	return t.mustAdd(&Property{name: name, kind: BagProperty, primitive: elem})
}

// Property is the concrete ResourceProperty.
type Property struct {
	name       string
	kind       PropertyKind
	primitive  *edm.PrimitiveType
	target     *Type
	column     string
	foreignKey string
	references string
	nullable   bool
}

// NewProperty creates a property for use with Type.AddProperty.
// target may be nil for primitive and bag properties.
func NewProperty(name string, kind PropertyKind, primitive *edm.PrimitiveType, target *Type) *Property {
	return &Property{name: name, kind: kind, primitive: primitive, target: target}
}

func (p *Property) Name() string       { return p.name }
func (p *Property) Kind() PropertyKind { return p.kind }

func (p *Property) PrimitiveType() *edm.PrimitiveType {
	if p.kind != PrimitiveProperty {
		return nil
	}
	return p.primitive
}

// ElementType returns the element type of a primitive bag.
func (p *Property) ElementType() *edm.PrimitiveType {
	if p.kind != BagProperty {
		return nil
	}
	return p.primitive
}

func (p *Property) TargetType() ResourceType {
	if p.target == nil {
		return nil
	}
	return p.target
}

// Target returns the concrete target type, or nil.
func (p *Property) Target() *Type { return p.target }

func (p *Property) Column() string     { return p.column }
func (p *Property) ForeignKey() string { return p.foreignKey }
func (p *Property) References() string { return p.references }
func (p *Property) Nullable() bool     { return p.nullable }

// WithNullable marks whether the property value may be null.
func (p *Property) WithNullable(nullable bool) *Property {
	p.nullable = nullable
	return p
}

// WithStorage sets storage hints: the column name of a primitive property or
// the foreign key / referenced key of a navigation property. Empty values
// fall back to naming conventions.
func (p *Property) WithStorage(column, foreignKey, references string) *Property {
	p.column = column
	p.foreignKey = foreignKey
	p.references = references
	return p
}
