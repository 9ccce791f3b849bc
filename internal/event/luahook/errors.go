package luahook

import (
	"errors"
	"fmt"
)

// Errors for script operations.
var (
	// ErrStateClosed is returned when operating on a closed script.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrNoHandle is returned when a script does not define handle(evt).
	ErrNoHandle = errors.New("script does not define a handle function")
)

// RejectedError is returned when handle returns false.
type RejectedError struct {
	Script  string
	Message string
}

// Error implements the error interface.
func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("script %s rejected event", e.Script)
	}
	return fmt.Sprintf("script %s rejected event: %s", e.Script, e.Message)
}
