package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated indicates a missing or invalid credential where one is required.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrPermissionDenied indicates the actor lacks a required permission or fails
	// the access-level ordering check. Both cases share this error on purpose so
	// the response never reveals which check failed.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrConflict indicates a unique-constraint violation on create or update.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates malformed or disallowed input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Conflictf wraps ErrConflict with the conflicting field class (email, phone).
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Validationf wraps ErrValidation with a caller-facing detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
