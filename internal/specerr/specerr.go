// Package specerr defines the error taxonomy shared by the translation
// pipeline. Every failure the pipeline reports carries one of the codes
// below so callers can branch with errors.Is instead of matching strings.
package specerr

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies a class of pipeline failure.
// Codes are string-based for debuggability and natural JSON serialization.
type Code string

const (
	// CodeNotFound indicates the input resource does not exist.
	CodeNotFound Code = "NOT_FOUND"

	// CodeStructural indicates the input could not be parsed: a required
	// metadata field is missing or the document grammar is unrecognizable.
	CodeStructural Code = "STRUCTURAL_ERROR"

	// CodeValidation indicates one or more schema violations.
	CodeValidation Code = "SCHEMA_VALIDATION_FAILED"

	// CodeSerialization indicates an internal invariant violation while
	// rendering a canonical document.
	CodeSerialization Code = "SERIALIZATION_ERROR"

	// CodeNotImplemented indicates the requested operation does not exist yet.
	CodeNotImplemented Code = "NOT_IMPLEMENTED"

	// CodeResourceExhausted indicates the input exceeded a configured bound.
	CodeResourceExhausted Code = "RESOURCE_EXHAUSTED"
)

// Sentinels for errors.Is. Matching is by code only.
var (
	ErrNotFound          = &Error{Code: CodeNotFound}
	ErrStructural        = &Error{Code: CodeStructural}
	ErrValidation        = &Error{Code: CodeValidation}
	ErrSerialization     = &Error{Code: CodeSerialization}
	ErrNotImplemented    = &Error{Code: CodeNotImplemented}
	ErrResourceExhausted = &Error{Code: CodeResourceExhausted}
)

// Error is a classified pipeline failure.
type Error struct {
	Code Code
	// Op names the operation that failed (extract, build, validate, ...).
	Op string
	// Field is the offending field or section, when there is exactly one.
	Field string
	// Messages holds every accumulated violation for validation failures.
	Messages []string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case len(e.Messages) > 0:
		b.WriteString(e.describe())
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Messages, "; "))
	case e.Field != "" && e.Err != nil:
		fmt.Fprintf(&b, "%s %q: %v", e.describe(), e.Field, e.Err)
	case e.Field != "":
		fmt.Fprintf(&b, "%s %q", e.describe(), e.Field)
	case e.Err != nil:
		fmt.Fprintf(&b, "%s: %v", e.describe(), e.Err)
	default:
		b.WriteString(e.describe())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *Error) describe() string {
	switch e.Code {
	case CodeNotFound:
		return "resource not found"
	case CodeStructural:
		if e.Field != "" {
			return "missing required field"
		}
		return "invalid document"
	case CodeValidation:
		return "validation failed"
	case CodeSerialization:
		return "serialization failed"
	case CodeNotImplemented:
		return "not implemented"
	case CodeResourceExhausted:
		return "resource limit exceeded"
	default:
		return strings.ToLower(string(e.Code))
	}
}

// NotFound reports a missing input resource.
func NotFound(op, path string, err error) *Error {
	return &Error{Code: CodeNotFound, Op: op, Field: path, Err: err}
}

// MissingField reports a structural failure caused by an absent required field.
func MissingField(op, field string) *Error {
	return &Error{Code: CodeStructural, Op: op, Field: field}
}

// Structural reports a structural failure with a free-form cause.
func Structural(op string, err error) *Error {
	return &Error{Code: CodeStructural, Op: op, Err: err}
}

// Validation reports every accumulated schema violation at once.
func Validation(op string, messages []string) *Error {
	msgs := make([]string, len(messages))
	copy(msgs, messages)
	return &Error{Code: CodeValidation, Op: op, Messages: msgs}
}

// Serialization reports an internal serializer invariant violation.
func Serialization(op string, err error) *Error {
	return &Error{Code: CodeSerialization, Op: op, Err: err}
}

// NotImplemented reports an operation that exists only as a placeholder.
func NotImplemented(op string) *Error {
	return &Error{Code: CodeNotImplemented, Op: op}
}

// ResourceExhausted reports input that exceeded a configured bound.
func ResourceExhausted(op string, err error) *Error {
	return &Error{Code: CodeResourceExhausted, Op: op, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// MessagesOf returns the accumulated messages of the first *Error in err's chain.
func MessagesOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Messages
	}
	return nil
}
