package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the outcome taxonomy. Handlers map these to HTTP
// statuses; everything else is treated as a transient backend failure.
var (
	ErrUnauthorized = errors.New("not authenticated")
	ErrForbidden    = errors.New("operation is forbidden for actor")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("conflicting state")
)

// Forbidden wraps ErrForbidden with a reason.
func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// Invalid wraps ErrValidation with a reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with the missing resource.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflict wraps ErrConflict with a reason.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func IsForbidden(err error) bool  { return errors.Is(err, ErrForbidden) }
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }
