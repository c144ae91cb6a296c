// Package apperrors defines the error taxonomy shared by the valuation
// engine and its HTTP surface. Every failure an operation can produce is
// classified into one of five kinds so callers can map it to a response
// without inspecting message text.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers.
type Kind string

const (
	// KindValidation marks malformed or missing input, rejected before any write.
	KindValidation Kind = "VALIDATION_ERROR"
	// KindNotFound marks a referenced entity that is missing or not in the expected state.
	KindNotFound Kind = "NOT_FOUND"
	// KindConflict marks an operation that would violate an invariant,
	// e.g. consolidating an already-consolidated source.
	KindConflict Kind = "CONFLICT"
	// KindDomain marks an operation that is inapplicable to the target's kind or status.
	KindDomain Kind = "DOMAIN_ERROR"
	// KindStorage marks a transaction or connection failure; the whole
	// operation has been rolled back.
	KindStorage Kind = "STORAGE_ERROR"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation builds a KindValidation error.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a KindConflict error.
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Domain builds a KindDomain error.
func Domain(format string, args ...interface{}) *Error {
	return &Error{Kind: KindDomain, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps an underlying storage failure.
func Storage(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindStorage, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind from err, walking the wrap chain.
// Unclassified errors are treated as storage failures.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorage
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
