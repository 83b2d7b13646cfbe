package metadata

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nlstn/go-odata-filter/internal/edm"
)

// SchemaConfig is the declarative form of a set of resource types, decoded
// from configuration files.
//
//	types:
//	  Product:
//	    properties:
//	      - {name: Name, type: Edm.String}
//	      - {name: CategoryID, type: Edm.Int32, nullable: true}
//	      - {name: Category, navigation: Category}
//	      - {name: Orders, navigation: Order, collection: true}
//	  Address:
//	    kind: complex
type SchemaConfig struct {
	Types map[string]TypeConfig `yaml:"types" json:"types"`
}

// TypeConfig declares one entity or complex type.
type TypeConfig struct {
	Kind       string           `yaml:"kind" json:"kind"`
	Table      string           `yaml:"table" json:"table"`
	Properties []PropertyConfig `yaml:"properties" json:"properties"`
}

// PropertyConfig declares one property. Exactly one of Type, Complex and
// Navigation must be set.
type PropertyConfig struct {
	Name       string `yaml:"name" json:"name"`
	Type       string `yaml:"type" json:"type"`
	Complex    string `yaml:"complex" json:"complex"`
	Navigation string `yaml:"navigation" json:"navigation"`
	Collection bool   `yaml:"collection" json:"collection"`
	Column     string `yaml:"column" json:"column"`
	ForeignKey string `yaml:"foreign_key" json:"foreign_key"`
	References string `yaml:"references" json:"references"`
	Nullable   bool   `yaml:"nullable" json:"nullable"`
}

// Schema is a resolved set of types addressable by name.
type Schema struct {
	types map[string]*Type
}

// Type returns the type with the given name.
func (s *Schema) Type(name string) (*Type, bool) {
	t, ok := s.types[name]
	return t, ok
}

// Names returns the sorted type names.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.types))
	for name := range s.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DecodeSchemaConfig reads a SchemaConfig from YAML or JSON. Other top-level
// keys are ignored, so the schema can share a file with other settings.
// Type and property names keep their case.
func DecodeSchemaConfig(data []byte) (SchemaConfig, error) {
	var cfg SchemaConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SchemaConfig{}, fmt.Errorf("decode schema: %w", err)
	}
	return cfg, nil
}

// BuildSchema resolves a SchemaConfig. Types are created first so properties
// may reference any type in the schema, including cyclically.
func BuildSchema(cfg SchemaConfig) (*Schema, error) {
	s := &Schema{types: make(map[string]*Type, len(cfg.Types))}

	for name, tc := range cfg.Types {
		switch strings.ToLower(tc.Kind) {
		case "", "entity":
			s.types[name] = NewEntityType(name).SetTable(tc.Table)
		case "complex":
			s.types[name] = NewComplexType(name)
		default:
			return nil, fmt.Errorf("type %s: unknown kind %q", name, tc.Kind)
		}
	}

	for _, name := range s.Names() {
		t := s.types[name]
		for _, pc := range cfg.Types[name].Properties {
			p, err := s.buildProperty(pc)
			if err != nil {
				return nil, fmt.Errorf("type %s: %w", name, err)
			}
			if err := t.AddProperty(p); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}

func (s *Schema) buildProperty(pc PropertyConfig) (*Property, error) {
	set := 0
	for _, v := range []string{pc.Type, pc.Complex, pc.Navigation} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("property %s: exactly one of type, complex or navigation is required", pc.Name)
	}

	switch {
	case pc.Type != "":
		typ, ok := edm.Lookup(pc.Type)
		if !ok {
			return nil, fmt.Errorf("property %s: unknown primitive type %s", pc.Name, pc.Type)
		}
		kind := PrimitiveProperty
		if pc.Collection {
			kind = BagProperty
		}
		return NewProperty(pc.Name, kind, typ, nil).WithStorage(pc.Column, "", "").WithNullable(pc.Nullable), nil

	case pc.Complex != "":
		target, ok := s.types[pc.Complex]
		if !ok || target.kind != ComplexKind {
			return nil, fmt.Errorf("property %s: unknown complex type %s", pc.Name, pc.Complex)
		}
		kind := ComplexProperty
		if pc.Collection {
			kind = BagProperty
		}
		return NewProperty(pc.Name, kind, nil, target), nil

	default:
		target, ok := s.types[pc.Navigation]
		if !ok || target.kind != EntityKind {
			return nil, fmt.Errorf("property %s: unknown entity type %s", pc.Name, pc.Navigation)
		}
		kind := ResourceReference
		if pc.Collection {
			kind = ResourceSetReference
		}
		return NewProperty(pc.Name, kind, nil, target).WithStorage("", pc.ForeignKey, pc.References), nil
	}
}
