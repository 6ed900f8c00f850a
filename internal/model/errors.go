package model

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed declaration.
//
// Validation errors are synchronous: they surface from the constructor or
// from Session.Post, never from solving.
type ValidationError struct {
	// Field names the offending argument ("start", "types", "cardinality", ...).
	Field string

	// Message is a human-readable description.
	Message string

	// Name is the variable name involved, when one exists.
	Name string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (name=%q)", e.Field, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func validationf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func namedValidationf(field, name, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Name: name, Message: fmt.Sprintf(format, args...)}
}
