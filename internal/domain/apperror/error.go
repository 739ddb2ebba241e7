// Package apperror internal/domain/apperror/error.go
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure produced by one of the retrieval stages
type Kind string

const (
	// KindTransport is used when the country-data call fails or returns an unparseable body
	KindTransport Kind = "transport"
	// KindDataShape is used when the response parses but lacks or misshapes expected fields
	KindDataShape Kind = "data_shape"
	// KindValidationMismatch is used when the resolved currency disagrees with the static table
	KindValidationMismatch Kind = "validation_mismatch"
	// KindAutomation is used for any failure while driving the converter page
	KindAutomation Kind = "automation"
)

// Error is the failure value shared by every stage. Message is stable and meant to be shown
// to users and asserted on in tests; Err keeps the underlying cause for diagnostics.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New creates a new Error of the given kind
func New(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     cause,
	}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail returns the message followed by the wrapped cause, if any
func (e *Error) Detail() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// KindOf reports the kind of the first *Error in err's chain
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// Is reports whether err carries an *Error of the given kind
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
