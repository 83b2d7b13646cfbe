package query

// Provider renders an expression tree into an artifact of type T, such as
// source text for an expression language or a SQL fragment. Process calls
// exactly one method per node, after its children have been rendered.
//
// Providers own operator spelling, parenthesisation, literal formatting and
// property path rendering. A function the provider cannot render should
// produce an InternalError with CodeUnmappedFunction.
type Provider[T any] interface {
	OnLogical(e *LogicalExpr, left, right T) (T, error)
	OnArithmetic(e *ArithmeticExpr, left, right T) (T, error)
	OnRelational(e *RelationalExpr, left, right T) (T, error)
	OnUnary(e *UnaryExpr, child T) (T, error)
	OnConstant(e *ConstantExpr) (T, error)
	OnPropertyAccess(e *PropertyAccessExpr) (T, error)
	OnFunctionCall(e *FunctionCallExpr, args []T) (T, error)
}

// Process renders root with provider in a post-order traversal.
func Process[T any](root Expression, provider Provider[T]) (T, error) {
	var zero T

	switch n := root.(type) {
	case *ConstantExpr:
		return provider.OnConstant(n)

	case *PropertyAccessExpr:
		return provider.OnPropertyAccess(n)

	case *LogicalExpr:
		left, right, err := processPair(n.Left, n.Right, provider)
		if err != nil {
			return zero, err
		}
		return provider.OnLogical(n, left, right)

	case *ArithmeticExpr:
		left, right, err := processPair(n.Left, n.Right, provider)
		if err != nil {
			return zero, err
		}
		return provider.OnArithmetic(n, left, right)

	case *RelationalExpr:
		left, right, err := processPair(n.Left, n.Right, provider)
		if err != nil {
			return zero, err
		}
		return provider.OnRelational(n, left, right)

	case *UnaryExpr:
		child, err := Process(n.Child, provider)
		if err != nil {
			return zero, err
		}
		return provider.OnUnary(n, child)

	case *FunctionCallExpr:
		args := make([]T, len(n.Args))
		for i, arg := range n.Args {
			rendered, err := Process(arg, provider)
			if err != nil {
				return zero, err
			}
			args[i] = rendered
		}
		return provider.OnFunctionCall(n, args)
	}

	return zero, InternalError(CodeUnexpectedNode, "unexpected expression node %T", root)
}

func processPair[T any](left, right Expression, provider Provider[T]) (T, T, error) {
	var zero T
	l, err := Process(left, provider)
	if err != nil {
		return zero, zero, err
	}
	r, err := Process(right, provider)
	if err != nil {
		return zero, zero, err
	}
	return l, r, nil
}
