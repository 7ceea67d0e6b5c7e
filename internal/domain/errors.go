package domain

import "fmt"

// ValidationError rejects strategy parameters before any order is
// submitted. It always reaches the caller synchronously.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// SetupError is a fatal failure to establish exchange connectivity at
// startup. Nothing may start after one.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("exchange connectivity: %v", e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }
