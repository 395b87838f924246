package gateway

import (
	"errors"
	"fmt"
)

// Sentinel errors for delivery operations.
var (
	ErrBeaconTooLarge  = errors.New("gateway: beacon payload exceeds limit")
	ErrBeaconQueueFull = errors.New("gateway: beacon queue full")
	ErrClosed          = errors.New("gateway: client closed")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op     string // "send", "beacon", "list", "summary"
	BookID string // If applicable
	Err    error
}

func (e *Error) Error() string {
	if e.BookID != "" {
		return fmt.Sprintf("gateway %s [%s]: %v", e.Op, e.BookID, e.Err)
	}
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, bookID string, err error) error {
	return &Error{Op: op, BookID: bookID, Err: err}
}
