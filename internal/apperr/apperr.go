// Package apperr gives every error that crosses a package boundary in
// this module a stable Kind, so callers (HTTP handlers, job handlers,
// the degradation manager) can branch on what kind of failure occurred
// without parsing error strings or depending on a specific package's
// sentinel errors.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to react differently
// depending on what went wrong (HTTP status code, retry eligibility,
// whether a fallback should run).
type Kind string

const (
	Validation          Kind = "VALIDATION"
	NotFound            Kind = "NOT_FOUND"
	BusinessRule        Kind = "BUSINESS_RULE"
	ResourceConflict    Kind = "RESOURCE_CONFLICT"
	ConstraintViolation Kind = "CONSTRAINT_VIOLATION"
	Optimization        Kind = "OPTIMIZATION"
	Resilience          Kind = "RESILIENCE"
	Concurrency         Kind = "CONCURRENCY"
)

// Error wraps an underlying error with a Kind and, optionally, a
// machine-readable code and structured context for logging.
type Error struct {
	kind    Kind
	code    string
	context map[string]any
	err     error
}

// New constructs an Error of the given kind wrapping err.
func New(kind Kind, code string, err error) *Error {
	return &Error{kind: kind, code: code, err: err}
}

// Newf constructs an Error of the given kind from a format string,
// mirroring fmt.Errorf's %w support for wrapping a cause.
func Newf(kind Kind, code, format string, args ...any) *Error {
	return &Error{kind: kind, code: code, err: fmt.Errorf(format, args...)}
}

// WithContext attaches structured fields for logging and returns the
// same *Error for chaining.
func (e *Error) WithContext(context map[string]any) *Error {
	e.context = context
	return e
}

func (e *Error) Error() string {
	if e.code != "" {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.code, e.err)
	}
	return fmt.Sprintf("%s: %v", e.kind, e.err)
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

// Code returns the machine-readable code, if any.
func (e *Error) Code() string { return e.code }

// Context returns the structured fields attached to the error, if any.
func (e *Error) Context() map[string]any { return e.context }

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, and reports false otherwise.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.kind, true
	}
	return "", false
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
