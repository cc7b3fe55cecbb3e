package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrImageTooLarge      = errors.New("image too large")
	ErrStorageUnavailable = errors.New("image storage unavailable")
)

// FieldError names one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned for malformed input. Handlers map it to 400.
type ValidationError struct {
	Message string
	Details []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// fieldErrors collects per-field problems and turns them into one ValidationError.
type fieldErrors []FieldError

func (f *fieldErrors) add(field, message string) {
	*f = append(*f, FieldError{Field: field, Message: message})
}

func (f fieldErrors) err(message string) error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Message: message, Details: f}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
