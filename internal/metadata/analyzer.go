package metadata

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/nlstn/go-odata-filter/internal/edm"
)

// tabler mirrors gorm's Tabler so custom table names carry over.
type tabler interface {
	TableName() string
}

// AnalyzeEntity derives an entity type from a Go struct.
//
// Exported fields become properties named after the field. Primitive Go
// types map through edm.FromGoType. A struct (or pointer to struct) field is a
// navigation reference when the struct has a key, otherwise a complex
// property; a slice of keyed structs is a navigation collection. Anonymous
// embedded structs are flattened. Pointer-typed primitive fields are nullable.
// The tag `odata:"-"` skips a field and `odata:"key"` marks a key.
func AnalyzeEntity(entity interface{}) (*Type, error) {
	entityType := reflect.TypeOf(entity)
	if entityType == nil {
		return nil, fmt.Errorf("entity must be a struct, got nil")
	}

	if entityType.Kind() == reflect.Ptr {
		entityType = entityType.Elem()
	}

	if entityType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity must be a struct, got %s", entityType.Kind())
	}

	a := &analyzer{types: make(map[reflect.Type]*Type)}
	return a.analyzeStruct(entityType, EntityKind)
}

type analyzer struct {
	types map[reflect.Type]*Type
}

func (a *analyzer) analyzeStruct(structType reflect.Type, kind TypeKind) (*Type, error) {
	if t, ok := a.types[structType]; ok {
		return t, nil
	}

	var t *Type
	if kind == EntityKind {
		t = NewEntityType(structType.Name())
		if tn, ok := reflect.New(structType).Interface().(tabler); ok {
			t.SetTable(tn.TableName())
		}
	} else {
		t = NewComplexType(structType.Name())
	}
	// Register before walking fields so self references terminate.
	a.types[structType] = t

	if err := a.analyzeFields(t, structType); err != nil {
		return nil, err
	}
	return t, nil
}

func (a *analyzer) analyzeFields(t *Type, structType reflect.Type) error {
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if field.Anonymous && indirect(field.Type).Kind() == reflect.Struct && !isPrimitiveStruct(indirect(field.Type)) {
			if err := a.analyzeFields(t, indirect(field.Type)); err != nil {
				return err
			}
			continue
		}

		// Skip unexported fields
		if !field.IsExported() {
			continue
		}

		if field.Tag.Get("odata") == "-" {
			continue
		}

		property, err := a.analyzeField(field)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", t.name, field.Name, err)
		}
		if property == nil {
			continue
		}
		if err := t.AddProperty(property); err != nil {
			return err
		}
	}
	return nil
}

func (a *analyzer) analyzeField(field reflect.StructField) (*Property, error) {
	gormTag := field.Tag.Get("gorm")
	fieldType := field.Type

	if primitive, err := edm.FromGoType(fieldType); err == nil {
		p := &Property{name: field.Name, kind: PrimitiveProperty, primitive: primitive}
		p.column = gormTagValue(gormTag, "column")
		p.nullable = fieldType.Kind() == reflect.Ptr
		return p, nil
	}

	isSlice := fieldType.Kind() == reflect.Slice || fieldType.Kind() == reflect.Array
	if isSlice {
		fieldType = fieldType.Elem()
	}
	fieldType = indirect(fieldType)

	if fieldType.Kind() != reflect.Struct {
		if isSlice {
			if elem, err := edm.FromGoType(fieldType); err == nil {
				return &Property{name: field.Name, kind: BagProperty, primitive: elem}, nil
			}
		}
		// Maps, funcs and channels have no filter representation.
		return nil, nil
	}

	if !hasKey(fieldType) {
		target, err := a.analyzeStruct(fieldType, ComplexKind)
		if err != nil {
			return nil, err
		}
		if isSlice {
			return &Property{name: field.Name, kind: BagProperty, target: target}, nil
		}
		return &Property{name: field.Name, kind: ComplexProperty, target: target}, nil
	}

	target, err := a.analyzeStruct(fieldType, EntityKind)
	if err != nil {
		return nil, err
	}
	p := &Property{name: field.Name, kind: ResourceReference, target: target}
	if isSlice {
		p.kind = ResourceSetReference
	}
	p.foreignKey = gormTagValue(gormTag, "foreignKey")
	p.references = gormTagValue(gormTag, "references")
	return p, nil
}

// hasKey reports whether a struct looks like an entity: it has a field named
// ID or a field tagged odata:"key", possibly through an embedded struct.
func hasKey(structType reflect.Type) bool {
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Anonymous && indirect(field.Type).Kind() == reflect.Struct && hasKey(indirect(field.Type)) {
			return true
		}
		if field.Name == "ID" {
			return true
		}
		for _, part := range strings.Split(field.Tag.Get("odata"), ",") {
			if strings.TrimSpace(part) == "key" {
				return true
			}
		}
	}
	return false
}

// gormTagValue extracts a value from a gorm tag like "foreignKey:UserID;references:ID".
func gormTagValue(gormTag, key string) string {
	for _, part := range strings.Split(gormTag, ";") {
		part = strings.TrimSpace(part)
		if k, v, ok := strings.Cut(part, ":"); ok && strings.EqualFold(strings.TrimSpace(k), key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

var timeType = reflect.TypeOf(time.Time{})

// isPrimitiveStruct reports whether a struct type is handled as a primitive
// value rather than flattened when embedded.
func isPrimitiveStruct(t reflect.Type) bool {
	if t == timeType {
		return true
	}
	_, err := edm.FromGoType(t)
	return err == nil
}
