package models

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownParticipant = errors.New("person is not a participant of this trip")
	ErrExpenseNotFound    = errors.New("expense not found")
	ErrInvalidShareCode   = errors.New("share code must be 6 characters from A-Z and 0-9")
)

// ValidationError reports an incomplete or inconsistent trip or expense form.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err (or anything it wraps) is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
