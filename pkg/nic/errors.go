package nic

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotSupported is returned by a driver when a requested feature is not available on the device
	ErrNotSupported = errors.New("operation not supported")
	// ErrExists is returned by a driver when an object with the same key already exists
	ErrExists = errors.New("object already exists")
	// ErrNotFound is returned by a driver when a referenced object does not exist
	ErrNotFound = errors.New("object not found")
	// ErrInvalidPort is returned by a driver when a port id is unknown
	ErrInvalidPort = errors.New("invalid port")
)

// Error is a driver error carrying the failed operation, the port and a driver message
type Error struct {
	Op      string
	Port    uint16
	Message string
	Cause   error
}

// NewError creates a new *Error
func NewError(op string, port uint16, cause error, message string) *Error {
	return &Error{Op: op, Port: port, Message: message, Cause: cause}
}

// Error implements error interface
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "(no stated reason)"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s port %d: %s: %s", e.Op, e.Port, msg, e.Cause)
	}
	return fmt.Sprintf("%s port %d: %s", e.Op, e.Port, msg)
}

// Unwrap returns the cause of the error
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsNotSupported returns true if err is or wraps ErrNotSupported
func IsNotSupported(err error) bool {
	return errors.Is(err, ErrNotSupported)
}
