package models

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks a caller contract violation: an unknown stage, grade,
// skill or kind, a non-positive frequency rank, or a malformed corpus record.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInput wraps ErrInvalidInput with a formatted detail message.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ErrNotFound is returned by stores when a requested record does not exist
var ErrNotFound = errors.New("not found")
