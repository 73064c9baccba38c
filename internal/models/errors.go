package models

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("not authorized")
	ErrConflict      = errors.New("conflict")
	ErrUnavailable   = errors.New("temporarily unavailable")
	ErrInvalidCursor = errors.New("invalid cursor")
	ErrInvalidVote   = errors.New("vote value must be 1 or -1")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

// ValidationError is a caller mistake reported field by field.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(message, field, fieldMessage string) *ValidationError {
	return &ValidationError{
		Message: message,
		Fields:  []FieldError{{Field: field, Message: fieldMessage}},
	}
}
