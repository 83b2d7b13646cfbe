package exprlang

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Predicate is a compiled expr-lang predicate over a single item.
type Predicate struct {
	source  string
	program *vm.Program
}

// Compile compiles rendered expr-lang source. The source must evaluate to a
// boolean.
func Compile(source string) (*Predicate, error) {
	options := append(helperOptions(),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	program, err := expr.Compile(source, options...)
	if err != nil {
		return nil, fmt.Errorf("compile predicate %q: %w", source, err)
	}
	return &Predicate{source: source, program: program}, nil
}

// Source returns the expr-lang text the predicate was compiled from.
func (p *Predicate) Source() string {
	return p.source
}

// Match evaluates the predicate with item bound to ItemVariable. Items may be
// structs, pointers to structs or maps keyed by property name.
func (p *Predicate) Match(item any) (bool, error) {
	out, err := expr.Run(p.program, map[string]any{ItemVariable: item})
	if err != nil {
		return false, fmt.Errorf("evaluate predicate: %w", err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("predicate returned %T, want bool", out)
	}
	return matched, nil
}
