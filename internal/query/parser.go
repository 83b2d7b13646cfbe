package query

import (
	"github.com/nlstn/go-odata-filter/internal/edm"
	"github.com/nlstn/go-odata-filter/internal/metadata"
)

// DefaultMaxDepth bounds how deeply expressions may nest.
const DefaultMaxDepth = 200

// ParserOptions configures a Parser.
type ParserOptions struct {
	// CustomProvider is set when the tree will be rendered by a provider
	// other than the default one. Null comparisons are then kept as plain
	// relational nodes and no null guards are added.
	CustomProvider bool
	// MaxDepth is the maximum expression nesting; 0 means DefaultMaxDepth.
	// Each parenthesised group and each function argument is one level.
	MaxDepth int
}

// ParseResult is the outcome of parsing a filter.
type ParseResult struct {
	// Root is the Boolean-typed expression tree, null-guarded unless a custom
	// provider is in use.
	Root Expression
	// NavigationPaths lists the distinct navigation property paths the
	// filter reads through.
	NavigationPaths []NavigationPath
}

// Parser turns filter text into a typed expression tree resolved against a
// resource type. A Parser is not safe for concurrent use; ParseFilter
// creates one per call.
type Parser struct {
	text     string
	root     metadata.ResourceType
	opts     ParserOptions
	maxDepth int

	lexer *Lexer
	depth int
}

// NewParser creates a parser for text against resource type rt.
func NewParser(text string, rt metadata.ResourceType, opts ParserOptions) *Parser {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Parser{text: text, root: rt, opts: opts, maxDepth: maxDepth}
}

// ParseFilter parses text against rt.
func ParseFilter(text string, rt metadata.ResourceType, opts ParserOptions) (*ParseResult, error) {
	return NewParser(text, rt, opts).ParseFilter()
}

// ParseFilter parses the whole text as a Boolean filter expression. Unless a
// custom provider is in use the tree is then rewritten once to guard every
// property path against null intermediate values.
func (p *Parser) ParseFilter() (*ParseResult, error) {
	lexer, err := NewLexer(p.text)
	if err != nil {
		return nil, err
	}
	p.lexer = lexer
	p.depth = 0

	root, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.lexer.ValidateToken(TokenEnd); err != nil {
		return nil, err
	}
	if root.Type() != edm.Boolean {
		return nil, newError(KindSemantic, CodeBooleanRequired, 0,
			"filter expression must be Edm.Boolean, found %s", root.Type().Name())
	}

	paths := CollectNavigationPaths(root)

	if !p.opts.CustomProvider {
		root, err = rewriteNullability(root)
		if err != nil {
			return nil, err
		}
	}

	return &ParseResult{Root: root, NavigationPaths: paths}, nil
}

func (p *Parser) token() Token {
	return p.lexer.CurrentToken()
}

func (p *Parser) advance() error {
	_, err := p.lexer.NextToken()
	return err
}

// parseExpression is the only recursive entry point, so depth is tracked here.
func (p *Parser) parseExpression() (Expression, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.maxDepth {
		return nil, newError(KindSyntax, CodeRecursionLimitExceeded, p.token().Position,
			"expression nesting exceeds the limit of %d", p.maxDepth)
	}
	return p.parseLogicalOr()
}

func (p *Parser) parseLogicalOr() (Expression, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.token().IdentifierIs("or") {
		op := p.token()
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		if left, err = p.buildLogical(OpOr, left, right, op); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parseLogicalAnd() (Expression, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.token().IdentifierIs("and") {
		op := p.token()
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if left, err = p.buildLogical(OpAnd, left, right, op); err != nil {
			return nil, err
		}
	}
	return left, nil
}

var relationalOperators = map[string]RelationalOperator{
	"eq": OpEqual,
	"ne": OpNotEqual,
	"gt": OpGreaterThan,
	"ge": OpGreaterThanOrEqual,
	"lt": OpLessThan,
	"le": OpLessThanOrEqual,
}

func (p *Parser) parseComparison() (Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.token().IsComparisonOperator() || p.token().IsEqualityOperator() {
		op := p.token()
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if left, err = p.buildRelational(relationalOperators[op.Text], left, right, op); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op ArithmeticOperator
		switch {
		case p.token().IdentifierIs("add"):
			op = OpAdd
		case p.token().IdentifierIs("sub"):
			op = OpSub
		default:
			return left, nil
		}
		opToken := p.token()
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		if left, err = p.buildArithmetic(op, left, right, opToken); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseMultiplicative() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ArithmeticOperator
		switch {
		case p.token().IdentifierIs("mul"):
			op = OpMul
		case p.token().IdentifierIs("div"):
			op = OpDiv
		case p.token().IdentifierIs("mod"):
			op = OpMod
		default:
			return left, nil
		}
		opToken := p.token()
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if left, err = p.buildArithmetic(op, left, right, opToken); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseUnary() (Expression, error) {
	opToken := p.token()
	if opToken.Kind != TokenMinus && !opToken.IdentifierIs("not") {
		return p.parsePrimary()
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	// "- 5" folds into the literal -5.
	if opToken.Kind == TokenMinus && p.token().Kind.IsNumeric() {
		literal := p.token()
		literal.Text = "-" + literal.Text
		literal.Position = opToken.Position
		if err := p.advance(); err != nil {
			return nil, err
		}
		constant, err := p.parseLiteral(literal)
		if err != nil {
			return nil, err
		}
		return p.parsePathSegments(constant)
	}

	operand, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	if opToken.Kind == TokenMinus {
		if !operand.Type().IsNumeric() {
			return nil, incompatibleUnary(opToken, operand)
		}
		return NewUnary(OpNegate, operand), nil
	}
	if operand.Type() != edm.Boolean {
		return nil, incompatibleUnary(opToken, operand)
	}
	return NewUnary(OpNot, operand), nil
}

func (p *Parser) parsePrimary() (Expression, error) {
	expr, err := p.parsePrimaryStart()
	if err != nil {
		return nil, err
	}
	return p.parsePathSegments(expr)
}

// parsePathSegments consumes ('/' identifier)* after a primary expression.
func (p *Parser) parsePathSegments(expr Expression) (Expression, error) {
	for p.token().Kind == TokenSlash {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.lexer.ValidateToken(TokenIdentifier); err != nil {
			return nil, err
		}
		name := p.token()

		parent, ok := expr.(*PropertyAccessExpr)
		if !ok || parent.Property.TargetType() == nil || parent.Property.Kind() == metadata.BagProperty {
			return nil, newError(KindSemantic, CodeNoPropertyInType, name.Position,
				"cannot access property '%s' on a value of type %s", name.Text, expr.Type().Name())
		}

		access, err := p.parsePropertyAccess(parent, parent.Property.TargetType())
		if err != nil {
			return nil, err
		}
		expr = access
	}
	return expr, nil
}

func (p *Parser) parsePrimaryStart() (Expression, error) {
	tok := p.token()
	switch tok.Kind {
	case TokenOpenParen:
		return p.parseParenExpression()
	case TokenIdentifier:
		next, err := p.lexer.PeekNextToken()
		if err != nil {
			return nil, err
		}
		if next.Kind == TokenOpenParen {
			return p.parseFunctionCall()
		}
		return p.parsePropertyAccess(nil, p.root)
	case TokenNullLiteral, TokenBooleanLiteral, TokenStringLiteral, TokenIntegerLiteral,
		TokenInt64Literal, TokenSingleLiteral, TokenDateTimeLiteral, TokenDecimalLiteral,
		TokenDoubleLiteral, TokenGuidLiteral, TokenBinaryLiteral:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseLiteral(tok)
	}
	return nil, newError(KindSyntax, CodeTokenExpected, tok.Position,
		"syntax error: expression expected, found %s", describeToken(tok))
}

func (p *Parser) parseParenExpression() (Expression, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.lexer.ValidateToken(TokenCloseParen); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return expr, nil
}

var literalTypes = map[TokenKind]*edm.PrimitiveType{
	TokenNullLiteral:     edm.Null,
	TokenBooleanLiteral:  edm.Boolean,
	TokenStringLiteral:   edm.String,
	TokenIntegerLiteral:  edm.Int32,
	TokenInt64Literal:    edm.Int64,
	TokenSingleLiteral:   edm.Single,
	TokenDateTimeLiteral: edm.DateTime,
	TokenDecimalLiteral:  edm.Decimal,
	TokenDoubleLiteral:   edm.Double,
	TokenGuidLiteral:     edm.Guid,
	TokenBinaryLiteral:   edm.Binary,
}

// parseLiteral converts an already consumed literal token into a constant.
func (p *Parser) parseLiteral(tok Token) (Expression, error) {
	typ, ok := literalTypes[tok.Kind]
	if !ok {
		return nil, newError(KindSyntax, CodeTokenExpected, tok.Position,
			"syntax error: literal expected, found %s", describeToken(tok))
	}

	value, err := typ.ParseLiteral(tok.Text)
	if err != nil && typ == edm.Int32 {
		// Integer literals too wide for Int32 are read as Int64.
		if v, err64 := edm.Int64.ParseLiteral(tok.Text); err64 == nil {
			typ, value, err = edm.Int64, v, nil
		}
	}
	if err != nil {
		return nil, newError(KindLiteral, CodeUnrecognizedLiteral, tok.Position,
			"unrecognized %s literal '%s'", typ.Name(), tok.Text)
	}

	c := NewConstant(value, typ)
	c.Text = tok.Text
	return c, nil
}

// parsePropertyAccess resolves the current identifier against rt.
func (p *Parser) parsePropertyAccess(parent *PropertyAccessExpr, rt metadata.ResourceType) (Expression, error) {
	tok := p.token()
	if err := p.lexer.ValidateToken(TokenIdentifier); err != nil {
		return nil, err
	}

	property, ok := rt.ResolveProperty(tok.Text)
	if !ok {
		return nil, newError(KindSemantic, CodeNoPropertyInType, tok.Position,
			"no property '%s' in type '%s'", tok.Text, rt.Name())
	}
	switch property.Kind() {
	case metadata.ResourceSetReference:
		return nil, newError(KindSemantic, CodeEntityCollectionNotAllowed, tok.Position,
			"navigation property '%s' of type '%s' is a collection and cannot be used in a filter",
			tok.Text, rt.Name())
	case metadata.BagProperty:
		return nil, newError(KindSemantic, CodeEntityCollectionNotAllowed, tok.Position,
			"collection property '%s' of type '%s' cannot be used in a filter", tok.Text, rt.Name())
	}

	if err := p.advance(); err != nil {
		return nil, err
	}
	return NewPropertyAccess(parent, property), nil
}

func (p *Parser) parseFunctionCall() (Expression, error) {
	name := p.token()
	candidates, err := ResolveByName(name.Text, name.Position)
	if err != nil {
		return nil, err
	}

	// Skip the name and the opening paren.
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var args []Expression
	if p.token().Kind != TokenCloseParen {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.token().Kind != TokenComma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.lexer.ValidateToken(TokenCloseParen); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	descriptor, err := ResolveOverload(candidates, args, name.Position)
	if err != nil {
		return nil, err
	}
	return NewFunctionCall(descriptor, args...), nil
}

func (p *Parser) buildLogical(op LogicalOperator, left, right Expression, opToken Token) (Expression, error) {
	if left.Type() != edm.Boolean || right.Type() != edm.Boolean {
		return nil, incompatibleBinary(opToken, left, right)
	}
	return NewLogical(op, left, right), nil
}

func (p *Parser) buildArithmetic(op ArithmeticOperator, left, right Expression, opToken Token) (Expression, error) {
	typ, ok := edm.Promote(left.Type(), right.Type())
	if !ok {
		return nil, incompatibleBinary(opToken, left, right)
	}
	return NewArithmetic(op, left, right, typ), nil
}

func (p *Parser) buildRelational(op RelationalOperator, left, right Expression, opToken Token) (Expression, error) {
	lt, rt := left.Type(), right.Type()
	leftNull, rightNull := lt.IsNull(), rt.IsNull()

	if !op.IsEquality() {
		switch {
		case leftNull || rightNull:
			return nil, newError(KindSemantic, CodeOperatorNotSupportNull, opToken.Position,
				"operator '%s' does not support null operands", opToken.Text)
		case lt == edm.Guid || rt == edm.Guid:
			return nil, newError(KindSemantic, CodeOperatorNotSupportGuid, opToken.Position,
				"operator '%s' does not support Edm.Guid operands", opToken.Text)
		case lt == edm.Binary || rt == edm.Binary:
			return nil, newError(KindSemantic, CodeOperatorNotSupportBinary, opToken.Position,
				"operator '%s' does not support Edm.Binary operands", opToken.Text)
		}
	}

	if leftNull || rightNull {
		if p.opts.CustomProvider {
			return NewRelational(op, left, right), nil
		}
		operand := left
		if leftNull {
			operand = right
		}
		check := NewFunctionCall(IsNullCheck(operand.Type()), operand)
		if op == OpEqual {
			return check, nil
		}
		return NewUnary(OpNot, check), nil
	}

	if !operandsComparable(lt, rt) {
		return nil, incompatibleBinary(opToken, left, right)
	}

	if lt == rt {
		if comparator := comparatorFor(lt); comparator != nil {
			call := NewFunctionCall(comparator, left, right)
			if comparator.ReturnType == edm.Boolean {
				return NewRelational(op, call, NewConstant(true, edm.Boolean)), nil
			}
			return NewRelational(op, call, NewConstant(int32(0), edm.Int32)), nil
		}
	}
	return NewRelational(op, left, right), nil
}

// operandsComparable reports whether two non-null operand types may be compared.
func operandsComparable(a, b *edm.PrimitiveType) bool {
	if a == edm.Resource || b == edm.Resource {
		return false
	}
	if a == b {
		return true
	}
	_, ok := edm.Promote(a, b)
	return ok
}

func incompatibleBinary(opToken Token, left, right Expression) error {
	return newError(KindSemantic, CodeIncompatibleOperandTypes, opToken.Position,
		"operator '%s' is not compatible with operand types %s and %s",
		opToken.Text, left.Type().Name(), right.Type().Name())
}

func incompatibleUnary(opToken Token, operand Expression) error {
	return newError(KindSemantic, CodeIncompatibleOperandTypes, opToken.Position,
		"operator '%s' is not compatible with operand type %s", opToken.Text, operand.Type().Name())
}
