package query

import "github.com/nlstn/go-odata-filter/internal/metadata"

// guard is an ordered set of property paths that must be non-null for an
// expression to be evaluated safely. Paths are keyed by their property names.
type guard struct {
	paths []*PropertyAccessExpr
	keys  map[string]bool
}

func (g *guard) add(access *PropertyAccessExpr) {
	key := access.PathKey()
	if g.keys[key] {
		return
	}
	if g.keys == nil {
		g.keys = make(map[string]bool)
	}
	g.keys[key] = true
	g.paths = append(g.paths, access)
}

func (g *guard) empty() bool {
	return g == nil || len(g.paths) == 0
}

// mergeGuards unions a and b, keeping a's paths first.
func mergeGuards(a, b *guard) *guard {
	switch {
	case a.empty():
		return b
	case b.empty():
		return a
	}
	merged := &guard{}
	for _, access := range a.paths {
		merged.add(access)
	}
	for _, access := range b.paths {
		merged.add(access)
	}
	return merged
}

// expression builds not(is_null(p1)) and not(is_null(p2)) and ...
func (g *guard) expression() Expression {
	var result Expression
	for _, access := range g.paths {
		check := NewUnary(OpNot, NewFunctionCall(IsNullCheck(access.Type()), access))
		if result == nil {
			result = check
		} else {
			result = NewLogical(OpAnd, result, check)
		}
	}
	return result
}

// conjoin returns guard and e, or e when there is nothing to guard.
func (g *guard) conjoin(e Expression) Expression {
	if g.empty() {
		return e
	}
	return NewLogical(OpAnd, g.expression(), e)
}

// accessGuard guards every proper prefix of access, and access itself when
// includeSelf is set. A property read directly from the item is guarded only
// when it is declared nullable.
func accessGuard(access *PropertyAccessExpr, includeSelf bool) *guard {
	if access.Parent == nil {
		if !includeSelf || !metadata.IsNullable(access.Property) {
			return nil
		}
		g := &guard{}
		g.add(access)
		return g
	}
	path := make([]*PropertyAccessExpr, 0, 4)
	for cur := access; cur != nil; cur = cur.Parent {
		path = append(path, cur)
	}
	g := &guard{}
	for i := len(path) - 1; i >= 1; i-- {
		g.add(path[i])
	}
	if includeSelf {
		g.add(access)
	}
	return g
}

// rewriteNullability returns a tree that evaluates like root for non-null
// inputs but first checks that no property path is read through a null
// value. Guards are hoisted as far up as the enclosing or; below an or each
// side carries its own guard.
//
// The rewrite runs exactly once per parse. It is not idempotent: a second
// run would guard the paths inside the guards it added.
func rewriteNullability(root Expression) (Expression, error) {
	rewritten, g, err := nullGuard(root, true)
	if err != nil {
		return nil, err
	}
	return g.conjoin(rewritten), nil
}

// nullGuard returns e with its or-nodes rewritten, and the guard e needs
// from its parent. checkSelf controls whether a property access guards its
// own value in addition to its parents.
func nullGuard(e Expression, checkSelf bool) (Expression, *guard, error) {
	switch n := e.(type) {
	case *ConstantExpr:
		return n, nil, nil

	case *PropertyAccessExpr:
		return n, accessGuard(n, checkSelf), nil

	case *FunctionCallExpr:
		// is_null already handles a null argument.
		checkArgs := !IsNullCheckCall(n)
		args := make([]Expression, len(n.Args))
		var g *guard
		for i, arg := range n.Args {
			rewritten, argGuard, err := nullGuard(arg, checkArgs)
			if err != nil {
				return nil, nil, err
			}
			args[i] = rewritten
			g = mergeGuards(g, argGuard)
		}
		return NewFunctionCall(n.Function, args...), g, nil

	case *LogicalExpr:
		left, leftGuard, err := nullGuard(n.Left, true)
		if err != nil {
			return nil, nil, err
		}
		right, rightGuard, err := nullGuard(n.Right, true)
		if err != nil {
			return nil, nil, err
		}
		if n.Operator == OpOr {
			return NewLogical(OpOr, leftGuard.conjoin(left), rightGuard.conjoin(right)), nil, nil
		}
		return NewLogical(n.Operator, left, right), mergeGuards(leftGuard, rightGuard), nil

	case *RelationalExpr:
		left, leftGuard, err := nullGuard(n.Left, true)
		if err != nil {
			return nil, nil, err
		}
		right, rightGuard, err := nullGuard(n.Right, true)
		if err != nil {
			return nil, nil, err
		}
		return NewRelational(n.Operator, left, right), mergeGuards(leftGuard, rightGuard), nil

	case *ArithmeticExpr:
		left, leftGuard, err := nullGuard(n.Left, true)
		if err != nil {
			return nil, nil, err
		}
		right, rightGuard, err := nullGuard(n.Right, true)
		if err != nil {
			return nil, nil, err
		}
		return NewArithmetic(n.Operator, left, right, n.Type()), mergeGuards(leftGuard, rightGuard), nil

	case *UnaryExpr:
		child, g, err := nullGuard(n.Child, true)
		if err != nil {
			return nil, nil, err
		}
		return NewUnary(n.Operator, child), g, nil
	}

	return nil, nil, InternalError(CodeUnexpectedNode, "unexpected expression node %T in null guard rewrite", e)
}
