package solve

import (
	"errors"
	"fmt"
)

// AdapterError reports a failure inside a solver adapter: a program shape
// the backend cannot represent, or a backend call that returned an error.
// Infeasibility and timeouts are Outcome values, never AdapterErrors.
type AdapterError struct {
	// Adapter names the backend that failed.
	Adapter string

	// Stage identifies the phase that failed (e.g. "encode", "search").
	Stage string

	// Err is the underlying cause, may be nil for shape rejections.
	Err error

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *AdapterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("adapter %s: %s: %s: %v", e.Adapter, e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("adapter %s: %s: %s", e.Adapter, e.Stage, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *AdapterError) Unwrap() error { return e.Err }

// IsAdapterError returns true if the error came from a solver adapter.
// Uses errors.As to handle wrapped errors.
func IsAdapterError(err error) bool {
	var ae *AdapterError
	return errors.As(err, &ae)
}
