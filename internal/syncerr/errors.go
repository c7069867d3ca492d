// Package syncerr defines the error kinds raised by the synchronization
// control core, per the recovery table in spec.md's error handling design.
package syncerr

import (
	"errors"
	"fmt"
)

// Kind classifies a control-plane error so that callers can branch on it
// without string matching.
type Kind string

const (
	InvalidArgument  Kind = "invalid_argument"
	NotFound         Kind = "not_found"
	Ambiguous        Kind = "ambiguous"
	AlreadyBound     Kind = "already_bound"
	NoSuchRemoteRoot Kind = "no_such_remote_root"
	NotWritable      Kind = "not_writable"
	Unauthorized     Kind = "unauthorized"
	NetworkError     Kind = "network_error"
	InjectedError    Kind = "injected_error"
)

// Error is the concrete error type returned by the control core. Kind
// InjectedError is available for test faults; a fault installed with
// remote.ClientFactory.SetFault is returned exactly as given, so it
// carries whatever kind (if any) the caller built it with.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs an Error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given kind, preserving cause for
// errors.Unwrap / errors.Is chains.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the first *Error found in err's Unwrap chain has
// the given kind; deeper *Error causes are not examined.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
