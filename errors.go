package odatafilter

import (
	"errors"
	"net/http"

	"github.com/nlstn/go-odata-filter/internal/query"
	"github.com/nlstn/go-odata-filter/internal/sqlgen"
)

// Error is the structured error returned for filter problems. It carries a
// kind, a code, a message and the byte offset into the filter text.
type Error = query.Error

// ErrorKind classifies an Error.
type ErrorKind = query.ErrorKind

// ErrorCode names the specific failure of an Error.
type ErrorCode = query.ErrorCode

// Error kinds. Every kind except KindInternal is caused by the filter text.
const (
	KindLexical  = query.KindLexical
	KindSyntax   = query.KindSyntax
	KindSemantic = query.KindSemantic
	KindLiteral  = query.KindLiteral
	KindInternal = query.KindInternal
)

// Sentinel errors for use with errors.Is.
var (
	// ErrLexical matches errors raised while scanning the filter text.
	// Maps to HTTP 400 Bad Request.
	ErrLexical = query.ErrLexical

	// ErrSyntax matches grammar violations and exceeded nesting limits.
	// Maps to HTTP 400 Bad Request.
	ErrSyntax = query.ErrSyntax

	// ErrSemantic matches unknown properties and functions and type errors.
	// Maps to HTTP 400 Bad Request.
	ErrSemantic = query.ErrSemantic

	// ErrLiteral matches malformed literal values.
	// Maps to HTTP 400 Bad Request.
	ErrLiteral = query.ErrLiteral

	// ErrInternal matches broken invariants inside the compiler or a
	// provider. Maps to HTTP 500 Internal Server Error.
	ErrInternal = query.ErrInternal

	// ErrUnsupportedSQL matches filters that are valid but have no SQL form,
	// e.g. a null comparison on a complex property.
	// Maps to HTTP 400 Bad Request.
	ErrUnsupportedSQL = sqlgen.ErrUnsupported
)

// Error codes.
const (
	CodeUnterminatedStringLiteral  = query.CodeUnterminatedStringLiteral
	CodeInvalidCharacter           = query.CodeInvalidCharacter
	CodeDigitExpected              = query.CodeDigitExpected
	CodeTokenExpected              = query.CodeTokenExpected
	CodeRecursionLimitExceeded     = query.CodeRecursionLimitExceeded
	CodeNoPropertyInType           = query.CodeNoPropertyInType
	CodeEntityCollectionNotAllowed = query.CodeEntityCollectionNotAllowed
	CodeUnknownFunction            = query.CodeUnknownFunction
	CodeAmbiguousFunctionCall      = query.CodeAmbiguousFunctionCall
	CodeIncompatibleOperandTypes   = query.CodeIncompatibleOperandTypes
	CodeOperatorNotSupportNull     = query.CodeOperatorNotSupportNull
	CodeOperatorNotSupportGuid     = query.CodeOperatorNotSupportGuid
	CodeOperatorNotSupportBinary   = query.CodeOperatorNotSupportBinary
	CodeBooleanRequired            = query.CodeBooleanRequired
	CodeUnrecognizedLiteral        = query.CodeUnrecognizedLiteral
	CodeUnmappedFunction           = query.CodeUnmappedFunction
	CodeUnexpectedNode             = query.CodeUnexpectedNode
)

// CodeOf returns the code of a filter error, or "" for other errors.
func CodeOf(err error) ErrorCode {
	return query.CodeOf(err)
}

// IsRequestError reports whether err was caused by the filter text rather
// than by the compiler.
func IsRequestError(err error) bool {
	if errors.Is(err, ErrUnsupportedSQL) {
		return true
	}
	var fe *Error
	return errors.As(err, &fe) && fe.Kind != KindInternal
}

// StatusCode returns the HTTP status code for an error returned by a
// Compiler.
//
// Example usage:
//
//	f, err := compiler.Compile(ctx, r.URL.Query().Get("$filter"), productType)
//	if err != nil {
//	    http.Error(w, err.Error(), odatafilter.StatusCode(err))
//	    return
//	}
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if IsRequestError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
