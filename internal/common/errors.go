// Package common defines shared constants and sentinel errors used across
// the clinic server layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Input errors (missing or malformed fields).
	ErrValidation = errors.New("validation error")

	// Conflicts with the current state of a resource. The specific variants
	// below wrap ErrConflict so callers may match either.
	ErrConflict       = errors.New("conflict")
	ErrAlreadyQueued  = fmt.Errorf("patient already in queue: %w", ErrConflict)
	ErrShiftClosed    = fmt.Errorf("shift is closed: %w", ErrConflict)
	ErrDuplicatePhone = fmt.Errorf("phone number already exists: %w", ErrConflict)

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Validationf returns an ErrValidation carrying a formatted detail.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
