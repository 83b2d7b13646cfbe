package edm

import (
	"fmt"
	"reflect"
)

// Kind identifies one member of the closed set of primitive types.
type Kind int

const (
	KindBinary Kind = iota
	KindBoolean
	KindByte
	KindDateTime
	KindDecimal
	KindDouble
	KindGuid
	KindInt16
	KindInt32
	KindInt64
	KindSByte
	KindSingle
	KindString
	KindNull
	// KindResource is the static type of a property access ending on a
	// complex or navigation property. It never appears as a literal.
	KindResource
)

// PrimitiveType is an immutable, shared description of an EDM primitive type.
// Instances are singletons; compare them with ==.
type PrimitiveType struct {
	kind  Kind
	name  string
	parse func(text string) (interface{}, error)
}

// Primitive type singletons.
var (
	Binary   = &PrimitiveType{kind: KindBinary, name: "Edm.Binary", parse: parseBinaryLiteral}
	Boolean  = &PrimitiveType{kind: KindBoolean, name: "Edm.Boolean", parse: parseBooleanLiteral}
	Byte     = &PrimitiveType{kind: KindByte, name: "Edm.Byte", parse: parseByteLiteral}
	DateTime = &PrimitiveType{kind: KindDateTime, name: "Edm.DateTime", parse: parseDateTimeLiteral}
	Decimal  = &PrimitiveType{kind: KindDecimal, name: "Edm.Decimal", parse: parseDecimalLiteral}
	Double   = &PrimitiveType{kind: KindDouble, name: "Edm.Double", parse: parseDoubleLiteral}
	Guid     = &PrimitiveType{kind: KindGuid, name: "Edm.Guid", parse: parseGuidLiteral}
	Int16    = &PrimitiveType{kind: KindInt16, name: "Edm.Int16", parse: parseInt16Literal}
	Int32    = &PrimitiveType{kind: KindInt32, name: "Edm.Int32", parse: parseInt32Literal}
	Int64    = &PrimitiveType{kind: KindInt64, name: "Edm.Int64", parse: parseInt64Literal}
	SByte    = &PrimitiveType{kind: KindSByte, name: "Edm.SByte", parse: parseSByteLiteral}
	Single   = &PrimitiveType{kind: KindSingle, name: "Edm.Single", parse: parseSingleLiteral}
	String   = &PrimitiveType{kind: KindString, name: "Edm.String", parse: parseStringLiteral}
	Null     = &PrimitiveType{kind: KindNull, name: "Edm.Null", parse: parseNullLiteral}
	Resource = &PrimitiveType{kind: KindResource, name: "Edm.Resource", parse: parseResourceLiteral}
)

var byName = map[string]*PrimitiveType{}

func init() {
	for _, t := range []*PrimitiveType{
		Binary, Boolean, Byte, DateTime, Decimal, Double, Guid,
		Int16, Int32, Int64, SByte, Single, String, Null,
	} {
		byName[t.name] = t
	}
}

// Kind returns the kind of the type.
func (t *PrimitiveType) Kind() Kind { return t.kind }

// Name returns the EDM type name (e.g. "Edm.String").
func (t *PrimitiveType) Name() string { return t.name }

func (t *PrimitiveType) String() string { return t.name }

// ParseLiteral validates a literal token text against the type's literal
// grammar and returns the typed Go value.
func (t *PrimitiveType) ParseLiteral(text string) (interface{}, error) {
	v, err := t.parse(text)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q as %s: %w", text, t.name, err)
	}
	return v, nil
}

// IsNull reports whether t is the type of the null literal.
func (t *PrimitiveType) IsNull() bool { return t.kind == KindNull }

// Lookup returns the primitive type registered under an EDM name.
// Edm.Resource is internal and cannot be looked up.
func Lookup(name string) (*PrimitiveType, bool) {
	t, ok := byName[name]
	return t, ok
}

// FromGoType infers the primitive type for a Go type.
func FromGoType(goType reflect.Type) (*PrimitiveType, error) {
	if goType == nil {
		return nil, fmt.Errorf("nil type")
	}

	if goType.Kind() == reflect.Ptr {
		goType = goType.Elem()
	}

	if goType.PkgPath() == "time" && goType.Name() == "Time" {
		return DateTime, nil
	}

	if goType.PkgPath() == "github.com/shopspring/decimal" && goType.Name() == "Decimal" {
		return Decimal, nil
	}

	if goType.PkgPath() == "github.com/google/uuid" && goType.Name() == "UUID" {
		return Guid, nil
	}

	if goType.Kind() == reflect.Slice && goType.Elem().Kind() == reflect.Uint8 {
		return Binary, nil
	}

	switch goType.Kind() {
	case reflect.String:
		return String, nil
	case reflect.Int, reflect.Int32:
		return Int32, nil
	case reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return Int64, nil
	case reflect.Int16:
		return Int16, nil
	case reflect.Int8:
		return SByte, nil
	case reflect.Uint16:
		return Int32, nil
	case reflect.Uint8:
		return Byte, nil
	case reflect.Float32:
		return Single, nil
	case reflect.Float64:
		return Double, nil
	case reflect.Bool:
		return Boolean, nil
	default:
		return nil, fmt.Errorf("unsupported Go type: %s", goType.String())
	}
}
