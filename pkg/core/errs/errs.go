// Package errs defines the domain error kinds surfaced through tool
// results. Domain failures travel as values with a stable kind tag
// embedded in the message ("Conflict: ..."), never as panics; the MCP
// framework renders them as isError results while transport faults stay
// JSON-RPC errors.
package errs

import (
	"errors"
	"fmt"
)

// Kind is the caller-visible error tag.
type Kind string

const (
	// KindValidation covers malformed input: schema violations, unknown
	// enum values, out-of-range numerics, unknown accounts, attempts to
	// target a bank account, missing confirmation on destructive ops.
	KindValidation Kind = "ValidationError"
	// KindNotFound covers absent transactions, suppliers, rules, versions.
	KindNotFound Kind = "NotFound"
	// KindConflict covers duplicate creates and same-value updates.
	KindConflict Kind = "Conflict"
	// KindProtected covers mutation of the bank range or other guarded state.
	KindProtected Kind = "Protected"
	// KindTimeout covers exceeded command budgets and call deadlines.
	KindTimeout Kind = "Timeout"
	// KindBlocked covers terminal blacklist and working-directory refusals.
	KindBlocked Kind = "Blocked"
	// KindIO covers persistence failures; callers must assume partial
	// state and reload.
	KindIO Kind = "IOError"
)

// Error is a tagged domain error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// New builds a tagged error from a preformatted message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validationf builds a ValidationError.
func Validationf(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

// NotFoundf builds a NotFound error.
func NotFoundf(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

// Conflictf builds a Conflict error.
func Conflictf(format string, args ...interface{}) *Error {
	return newf(KindConflict, format, args...)
}

// Protectedf builds a Protected error.
func Protectedf(format string, args ...interface{}) *Error {
	return newf(KindProtected, format, args...)
}

// Timeoutf builds a Timeout error.
func Timeoutf(format string, args ...interface{}) *Error {
	return newf(KindTimeout, format, args...)
}

// Blockedf builds a Blocked error.
func Blockedf(format string, args ...interface{}) *Error {
	return newf(KindBlocked, format, args...)
}

// IOf builds an IOError.
func IOf(format string, args ...interface{}) *Error {
	return newf(KindIO, format, args...)
}

// KindOf extracts the kind from err, unwrapping as needed. Untagged errors
// report KindIO so persistence helpers can wrap raw OS errors without
// ceremony.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindIO
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind == kind
	}
	return false
}

// IsDomain reports whether err is a tagged domain error at all.
func IsDomain(err error) bool {
	var tagged *Error
	return errors.As(err, &tagged)
}
