package config

import (
	"errors"
	"fmt"
)

// Grid parameter bounds. Values outside these ranges are rejected before
// any engine work begins.
const (
	MinSpacingMiles = 0.1
	MaxSpacingMiles = 2.0
	MinRadiusMiles  = 5.0
	MaxRadiusMiles  = 50.0
)

// weightTolerance is the allowed deviation of the score weight sum from 1.0.
const weightTolerance = 0.001

// ValidationError marks a fatal configuration problem. It aborts the run
// before any engine work starts.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
