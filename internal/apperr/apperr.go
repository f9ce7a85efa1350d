// Package apperr defines the closed error taxonomy shared by all layers.
// Services and stores return *Error values; handlers map kinds to HTTP status.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	// KindValidation covers malformed input, amounts below minimum and
	// illegal state transitions. Always names the violated rule.
	KindValidation Kind = "validation"
	// KindForbidden covers ineligible participants, wrong role and wrong
	// auction state.
	KindForbidden Kind = "forbidden"
	// KindNotFound covers unknown auctions, bids and participants.
	KindNotFound Kind = "not_found"
	// KindConflict covers duplicate registration, re-denial, double
	// finalization and concurrent-loser bids.
	KindConflict Kind = "conflict"
	// KindInternal covers everything else.
	KindInternal Kind = "internal"
)

// Error carries a kind, a caller-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation is shorthand for New(KindValidation, message).
func Validation(message string) *Error { return New(KindValidation, message) }

// Forbidden is shorthand for New(KindForbidden, message).
func Forbidden(message string) *Error { return New(KindForbidden, message) }

// NotFound is shorthand for New(KindNotFound, message).
func NotFound(message string) *Error { return New(KindNotFound, message) }

// Conflict is shorthand for New(KindConflict, message).
func Conflict(message string) *Error { return New(KindConflict, message) }

// KindOf extracts the Kind from err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
