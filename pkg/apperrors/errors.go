// Package apperrors defines the error taxonomy shared by every layer.
// Each error carries a Kind (the family) and a Code (the specific failure).
// errors.Is matches on Kind and Code, so wrapped errors compare equal to the
// exported sentinels regardless of message.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind is the error family reported to callers.
type Kind string

const (
	KindConnection  Kind = "connection_error"
	KindSchema      Kind = "schema_error"
	KindTranslation Kind = "translation_error"
	KindSafety      Kind = "safety_error"
	KindExecution   Kind = "execution_error"
)

// Code identifies the specific failure within a Kind.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeUnreadable         Code = "unreadable"
	CodeUnconfigured       Code = "unconfigured"
	CodeTimeout            Code = "timeout"
	CodeTableNotFound      Code = "table_not_found"
	CodeColumnNotFound     Code = "column_not_found"
	CodeAmbiguous          Code = "ambiguous"
	CodeNoMatch            Code = "no_match"
	CodeNotReadOnly        Code = "not_read_only"
	CodeMultipleStatements Code = "multiple_statements"
	CodeUnknownIdentifier  Code = "unknown_identifier"
	CodeEngineFailure      Code = "engine_failure"
)

// Error is the concrete error type for every failure surfaced to callers.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	// Candidates lists the competing names for ambiguous translations.
	Candidates []string
	Err        error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Kind and Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

var (
	ErrDatabaseNotFound     = &Error{Kind: KindConnection, Code: CodeNotFound}
	ErrDatabaseUnreadable   = &Error{Kind: KindConnection, Code: CodeUnreadable}
	ErrDatabaseUnconfigured = &Error{Kind: KindConnection, Code: CodeUnconfigured}
	ErrConnectionTimeout    = &Error{Kind: KindConnection, Code: CodeTimeout}

	ErrTableNotFound  = &Error{Kind: KindSchema, Code: CodeTableNotFound}
	ErrColumnNotFound = &Error{Kind: KindSchema, Code: CodeColumnNotFound}

	ErrAmbiguous = &Error{Kind: KindTranslation, Code: CodeAmbiguous}
	ErrNoMatch   = &Error{Kind: KindTranslation, Code: CodeNoMatch}

	ErrNotReadOnly        = &Error{Kind: KindSafety, Code: CodeNotReadOnly}
	ErrMultipleStatements = &Error{Kind: KindSafety, Code: CodeMultipleStatements}
	ErrUnknownIdentifier  = &Error{Kind: KindSafety, Code: CodeUnknownIdentifier}

	ErrEngineFailure    = &Error{Kind: KindExecution, Code: CodeEngineFailure}
	ErrExecutionTimeout = &Error{Kind: KindExecution, Code: CodeTimeout}
)

// New creates an error of the given kind and code.
func New(kind Kind, code Code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind and code that wraps cause.
func Wrap(cause error, kind Kind, code Code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Ambiguous creates a translation error listing the competing candidates.
func Ambiguous(what, term string, candidates []string) *Error {
	return &Error{
		Kind:       KindTranslation,
		Code:       CodeAmbiguous,
		Message:    fmt.Sprintf("%s %q is ambiguous: matches %v", what, term, candidates),
		Candidates: candidates,
	}
}

// From extracts the *Error in err's chain. Anything else is reported as an
// engine failure that keeps err as its cause.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindExecution, Code: CodeEngineFailure, Message: "query engine failure", Err: err}
}
