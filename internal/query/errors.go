package query

import (
	"errors"
	"fmt"
)

// ErrorKind classifies filter errors. Every kind except KindInternal is
// caused by client input.
type ErrorKind int

const (
	KindLexical ErrorKind = iota + 1
	KindSyntax
	KindSemantic
	KindLiteral
	KindInternal
)

// Sentinels for errors.Is matching on the kind of an *Error.
var (
	ErrLexical  = errors.New("filter: lexical error")
	ErrSyntax   = errors.New("filter: syntax error")
	ErrSemantic = errors.New("filter: semantic error")
	ErrLiteral  = errors.New("filter: malformed literal")
	ErrInternal = errors.New("filter: internal error")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindLexical:
		return ErrLexical
	case KindSyntax:
		return ErrSyntax
	case KindSemantic:
		return ErrSemantic
	case KindLiteral:
		return ErrLiteral
	}
	return ErrInternal
}

func (k ErrorKind) String() string {
	switch k {
	case KindLexical:
		return "lexical"
	case KindSyntax:
		return "syntax"
	case KindSemantic:
		return "semantic"
	case KindLiteral:
		return "literal"
	case KindInternal:
		return "internal"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ErrorCode names the specific failure.
type ErrorCode string

const (
	CodeUnterminatedStringLiteral  ErrorCode = "UnterminatedStringLiteral"
	CodeInvalidCharacter           ErrorCode = "InvalidCharacter"
	CodeDigitExpected              ErrorCode = "DigitExpected"
	CodeTokenExpected              ErrorCode = "TokenExpected"
	CodeRecursionLimitExceeded     ErrorCode = "RecursionLimitExceeded"
	CodeNoPropertyInType           ErrorCode = "NoPropertyInType"
	CodeEntityCollectionNotAllowed ErrorCode = "EntityCollectionNotAllowedInFilter"
	CodeUnknownFunction            ErrorCode = "UnknownFunction"
	CodeAmbiguousFunctionCall      ErrorCode = "AmbiguousFunctionCall"
	CodeIncompatibleOperandTypes   ErrorCode = "IncompatibleOperandTypes"
	CodeOperatorNotSupportNull     ErrorCode = "OperatorNotSupportNull"
	CodeOperatorNotSupportGuid     ErrorCode = "OperatorNotSupportGuid"
	CodeOperatorNotSupportBinary   ErrorCode = "OperatorNotSupportBinary"
	CodeBooleanRequired            ErrorCode = "BooleanRequired"
	CodeUnrecognizedLiteral        ErrorCode = "UnrecognizedLiteral"
	CodeUnmappedFunction           ErrorCode = "UnmappedFunction"
	CodeUnexpectedNode             ErrorCode = "UnexpectedNode"
)

// Error is returned by every stage of the filter pipeline. Position is the
// 0-based byte offset into the filter text, or -1 when not applicable.
type Error struct {
	Kind     ErrorKind
	Code     ErrorCode
	Message  string
	Position int
}

func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d", e.Message, e.Position)
	}
	return e.Message
}

// Is matches the kind sentinels (ErrSyntax, ErrInternal, ...).
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func newError(kind ErrorKind, code ErrorCode, pos int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...), Position: pos}
}

// InternalError reports a broken invariant, e.g. a provider asked to render a
// function it has no mapping for.
func InternalError(code ErrorCode, format string, args ...interface{}) *Error {
	return newError(KindInternal, code, -1, format, args...)
}

// CodeOf returns the code of a filter error, or "" for other errors.
func CodeOf(err error) ErrorCode {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}
