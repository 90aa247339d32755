package rpc

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by calls made while no ready connection exists.
	ErrNotConnected = errors.New("rpc: not connected")

	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("rpc: client closed")
)

// Error is an error reported by the external process, either as an ERROR
// reply to a command or in a close frame.
type Error struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// ValidationError reports an activity the external process would reject.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid activity: %s: %s", e.Field, e.Reason)
}

// IsNotConnected returns true if err is or wraps ErrNotConnected.
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
