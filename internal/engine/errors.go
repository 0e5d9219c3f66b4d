package engine

import (
	"errors"
	"fmt"
)

// ErrNoProcessor is recorded as the task error when no processor is
// registered for the task's type.
var ErrNoProcessor = errors.New("no processor registered for task type")

// ErrInvalidOrdinal is returned when a worker identity is constructed with a
// negative ordinal.
var ErrInvalidOrdinal = errors.New("worker ordinal must be >= 0")

// UserFacingError is a processing failure whose message is meant to be shown
// to the task's submitter. Workers log it at a lower severity than
// unexpected failures and carry the message onto the activity record.
type UserFacingError struct {
	// Message is the text shown to the submitter.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// NewUserFacingError creates a UserFacingError with the given submitter
// message wrapping an optional cause.
func NewUserFacingError(message string, err error) *UserFacingError {
	return &UserFacingError{Message: message, Err: err}
}

func (e *UserFacingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UserFacingError) Unwrap() error {
	return e.Err
}

// AsUserFacing reports whether err (or anything it wraps) is a
// UserFacingError, returning it when so.
func AsUserFacing(err error) (*UserFacingError, bool) {
	var uf *UserFacingError
	if errors.As(err, &uf) {
		return uf, true
	}
	return nil, false
}
