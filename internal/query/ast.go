package query

import (
	"fmt"
	"strings"

	"github.com/nlstn/go-odata-filter/internal/edm"
	"github.com/nlstn/go-odata-filter/internal/metadata"
)

// Expression is a node of a typed filter expression tree. Trees are built by
// the parser and never mutated afterwards; rewrites produce new nodes.
//
// The set of node types is closed: ConstantExpr, PropertyAccessExpr,
// ArithmeticExpr, RelationalExpr, LogicalExpr, UnaryExpr and FunctionCallExpr.
type Expression interface {
	// Type is the static result type of the node.
	Type() *edm.PrimitiveType
	exprNode()
}

// ArithmeticOperator is the operator of an ArithmeticExpr.
type ArithmeticOperator int

const (
	OpAdd ArithmeticOperator = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

func (op ArithmeticOperator) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpMod:
		return "mod"
	}
	return fmt.Sprintf("ArithmeticOperator(%d)", int(op))
}

// RelationalOperator is the operator of a RelationalExpr.
type RelationalOperator int

const (
	OpEqual RelationalOperator = iota
	OpNotEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpLessThan
	OpLessThanOrEqual
)

func (op RelationalOperator) String() string {
	switch op {
	case OpEqual:
		return "eq"
	case OpNotEqual:
		return "ne"
	case OpGreaterThan:
		return "gt"
	case OpGreaterThanOrEqual:
		return "ge"
	case OpLessThan:
		return "lt"
	case OpLessThanOrEqual:
		return "le"
	}
	return fmt.Sprintf("RelationalOperator(%d)", int(op))
}

// IsEquality reports whether op is eq or ne.
func (op RelationalOperator) IsEquality() bool {
	return op == OpEqual || op == OpNotEqual
}

// LogicalOperator is the operator of a LogicalExpr.
type LogicalOperator int

const (
	OpAnd LogicalOperator = iota
	OpOr
)

func (op LogicalOperator) String() string {
	switch op {
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	}
	return fmt.Sprintf("LogicalOperator(%d)", int(op))
}

// UnaryOperator is the operator of a UnaryExpr.
type UnaryOperator int

const (
	OpNegate UnaryOperator = iota
	OpNot
)

func (op UnaryOperator) String() string {
	switch op {
	case OpNegate:
		return "-"
	case OpNot:
		return "not"
	}
	return fmt.Sprintf("UnaryOperator(%d)", int(op))
}

// ConstantExpr is a typed literal value. Text is the literal as written, or
// empty for constants synthesized by the parser.
type ConstantExpr struct {
	Value interface{}
	Text  string
	typ   *edm.PrimitiveType
}

// NewConstant creates a constant of type typ.
func NewConstant(value interface{}, typ *edm.PrimitiveType) *ConstantExpr {
	return &ConstantExpr{Value: value, typ: typ}
}

func (e *ConstantExpr) Type() *edm.PrimitiveType { return e.typ }
func (e *ConstantExpr) exprNode()                {}

// IsNull reports whether the constant is the null literal.
func (e *ConstantExpr) IsNull() bool { return e.typ.IsNull() }

// PropertyAccessExpr reads Property from the value produced by Parent, or from
// the filtered item when Parent is nil. Chained accesses form a path.
type PropertyAccessExpr struct {
	Parent   *PropertyAccessExpr
	Property metadata.ResourceProperty
}

// NewPropertyAccess creates a property access.
func NewPropertyAccess(parent *PropertyAccessExpr, property metadata.ResourceProperty) *PropertyAccessExpr {
	return &PropertyAccessExpr{Parent: parent, Property: property}
}

// Type is the property's primitive type, or edm.Resource when the property
// holds a complex value, a navigation target or a collection.
func (e *PropertyAccessExpr) Type() *edm.PrimitiveType {
	if t := e.Property.PrimitiveType(); t != nil {
		return t
	}
	return edm.Resource
}

func (e *PropertyAccessExpr) exprNode() {}

// Path returns the accessed properties from the root item to this one.
func (e *PropertyAccessExpr) Path() []metadata.ResourceProperty {
	var path []metadata.ResourceProperty
	for cur := e; cur != nil; cur = cur.Parent {
		path = append(path, cur.Property)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathNames returns the property names of Path.
func (e *PropertyAccessExpr) PathNames() []string {
	path := e.Path()
	names := make([]string, len(path))
	for i, p := range path {
		names[i] = p.Name()
	}
	return names
}

// PathKey returns the path as "A/B/C".
func (e *PropertyAccessExpr) PathKey() string {
	return strings.Join(e.PathNames(), "/")
}

// ArithmeticExpr is a binary numeric operation.
type ArithmeticExpr struct {
	Operator ArithmeticOperator
	Left     Expression
	Right    Expression
	typ      *edm.PrimitiveType
}

// NewArithmetic creates an arithmetic node whose result type is typ.
func NewArithmetic(op ArithmeticOperator, left, right Expression, typ *edm.PrimitiveType) *ArithmeticExpr {
	return &ArithmeticExpr{Operator: op, Left: left, Right: right, typ: typ}
}

func (e *ArithmeticExpr) Type() *edm.PrimitiveType { return e.typ }
func (e *ArithmeticExpr) exprNode()                {}

// RelationalExpr compares two operands.
type RelationalExpr struct {
	Operator RelationalOperator
	Left     Expression
	Right    Expression
}

// NewRelational creates a comparison.
func NewRelational(op RelationalOperator, left, right Expression) *RelationalExpr {
	return &RelationalExpr{Operator: op, Left: left, Right: right}
}

func (e *RelationalExpr) Type() *edm.PrimitiveType { return edm.Boolean }
func (e *RelationalExpr) exprNode()                {}

// LogicalExpr joins two Boolean operands.
type LogicalExpr struct {
	Operator LogicalOperator
	Left     Expression
	Right    Expression
}

// NewLogical creates a logical node.
func NewLogical(op LogicalOperator, left, right Expression) *LogicalExpr {
	return &LogicalExpr{Operator: op, Left: left, Right: right}
}

func (e *LogicalExpr) Type() *edm.PrimitiveType { return edm.Boolean }
func (e *LogicalExpr) exprNode()                {}

// UnaryExpr negates a number or inverts a Boolean.
type UnaryExpr struct {
	Operator UnaryOperator
	Child    Expression
}

// NewUnary creates a unary node.
func NewUnary(op UnaryOperator, child Expression) *UnaryExpr {
	return &UnaryExpr{Operator: op, Child: child}
}

func (e *UnaryExpr) Type() *edm.PrimitiveType {
	if e.Operator == OpNot {
		return edm.Boolean
	}
	return e.Child.Type()
}

func (e *UnaryExpr) exprNode() {}

// FunctionCallExpr calls a resolved catalog or operator function.
type FunctionCallExpr struct {
	Function *FunctionDescriptor
	Args     []Expression
}

// NewFunctionCall creates a call of fn with args.
func NewFunctionCall(fn *FunctionDescriptor, args ...Expression) *FunctionCallExpr {
	return &FunctionCallExpr{Function: fn, Args: args}
}

func (e *FunctionCallExpr) Type() *edm.PrimitiveType { return e.Function.ReturnType }
func (e *FunctionCallExpr) exprNode()                {}

// Walk calls visit for e and then for each of its children, depth first.
// Returning false from visit skips the node's children.
func Walk(e Expression, visit func(Expression) bool) {
	if e == nil || !visit(e) {
		return
	}
	switch n := e.(type) {
	case *PropertyAccessExpr:
		if n.Parent != nil {
			Walk(n.Parent, visit)
		}
	case *ArithmeticExpr:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case *RelationalExpr:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case *LogicalExpr:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case *UnaryExpr:
		Walk(n.Child, visit)
	case *FunctionCallExpr:
		for _, arg := range n.Args {
			Walk(arg, visit)
		}
	}
}

// Format renders a tree in a compact prefix notation, for logs and tests.
//
//	gt(Price, 10)
//	and(not(is_null(Category)), eq(strcmp(Category/Name, 'x'), 0))
func Format(e Expression) string {
	var b strings.Builder
	format(&b, e)
	return b.String()
}

func format(b *strings.Builder, e Expression) {
	switch n := e.(type) {
	case *ConstantExpr:
		switch {
		case n.IsNull():
			b.WriteString("null")
		case n.Text != "":
			b.WriteString(n.Text)
		default:
			fmt.Fprint(b, n.Value)
		}
	case *PropertyAccessExpr:
		b.WriteString(n.PathKey())
	case *ArithmeticExpr:
		formatCall(b, n.Operator.String(), n.Left, n.Right)
	case *RelationalExpr:
		formatCall(b, n.Operator.String(), n.Left, n.Right)
	case *LogicalExpr:
		formatCall(b, n.Operator.String(), n.Left, n.Right)
	case *UnaryExpr:
		name := "neg"
		if n.Operator == OpNot {
			name = "not"
		}
		formatCall(b, name, n.Child)
	case *FunctionCallExpr:
		formatCall(b, n.Function.Name, n.Args...)
	default:
		fmt.Fprintf(b, "%T", e)
	}
}

func formatCall(b *strings.Builder, name string, args ...Expression) {
	b.WriteString(name)
	b.WriteByte('(')
	for i, arg := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		format(b, arg)
	}
	b.WriteByte(')')
}
