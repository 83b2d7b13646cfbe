package query

import "fmt"

// TokenKind is the category of a lexical token.
type TokenKind int

const (
	TokenUnknown TokenKind = iota
	TokenEnd
	TokenEqual
	TokenIdentifier
	TokenNullLiteral
	TokenBooleanLiteral
	TokenStringLiteral
	TokenIntegerLiteral
	TokenInt64Literal
	TokenSingleLiteral
	TokenDateTimeLiteral
	TokenDecimalLiteral
	TokenDoubleLiteral
	TokenGuidLiteral
	TokenBinaryLiteral
	TokenExclamation
	TokenOpenParen
	TokenCloseParen
	TokenComma
	TokenMinus
	TokenSlash
	TokenQuestion
	TokenDot
	TokenStar
)

var tokenKindNames = [...]string{
	TokenUnknown:         "Unknown",
	TokenEnd:             "End",
	TokenEqual:           "Equal",
	TokenIdentifier:      "Identifier",
	TokenNullLiteral:     "NullLiteral",
	TokenBooleanLiteral:  "BooleanLiteral",
	TokenStringLiteral:   "StringLiteral",
	TokenIntegerLiteral:  "IntegerLiteral",
	TokenInt64Literal:    "Int64Literal",
	TokenSingleLiteral:   "SingleLiteral",
	TokenDateTimeLiteral: "DateTimeLiteral",
	TokenDecimalLiteral:  "DecimalLiteral",
	TokenDoubleLiteral:   "DoubleLiteral",
	TokenGuidLiteral:     "GuidLiteral",
	TokenBinaryLiteral:   "BinaryLiteral",
	TokenExclamation:     "Exclamation",
	TokenOpenParen:       "OpenParen",
	TokenCloseParen:      "CloseParen",
	TokenComma:           "Comma",
	TokenMinus:           "Minus",
	TokenSlash:           "Slash",
	TokenQuestion:        "Question",
	TokenDot:             "Dot",
	TokenStar:            "Star",
}

func (k TokenKind) String() string {
	if k >= 0 && int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// IsNumeric reports whether k is an Integer, Decimal, Double, Int64 or Single literal.
func (k TokenKind) IsNumeric() bool {
	switch k {
	case TokenIntegerLiteral, TokenDecimalLiteral, TokenDoubleLiteral, TokenInt64Literal, TokenSingleLiteral:
		return true
	}
	return false
}

// IsKeyValue reports whether a literal of kind k may serve as a key value.
func (k TokenKind) IsKeyValue() bool {
	switch k {
	case TokenBinaryLiteral, TokenBooleanLiteral, TokenDateTimeLiteral, TokenGuidLiteral,
		TokenStringLiteral, TokenInt64Literal, TokenIntegerLiteral, TokenDoubleLiteral,
		TokenSingleLiteral, TokenDecimalLiteral:
		return true
	}
	return false
}

// Token is one lexical unit of a filter expression.
type Token struct {
	Kind     TokenKind
	Text     string
	Position int
}

// IdentifierIs reports whether t is an identifier spelled exactly text.
func (t Token) IdentifierIs(text string) bool {
	return t.Kind == TokenIdentifier && t.Text == text
}

// IsComparisonOperator reports whether t is one of gt, ge, lt, le.
func (t Token) IsComparisonOperator() bool {
	if t.Kind != TokenIdentifier {
		return false
	}
	switch t.Text {
	case "gt", "ge", "lt", "le":
		return true
	}
	return false
}

// IsEqualityOperator reports whether t is eq or ne.
func (t Token) IsEqualityOperator() bool {
	return t.Kind == TokenIdentifier && (t.Text == "eq" || t.Text == "ne")
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Text, t.Position)
}
