package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateEmail is returned when registering an email that already exists
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrInvalidCredentials is returned for both unknown emails and wrong passwords
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNotFound is returned by repositories when a lookup matches nothing
	ErrNotFound = errors.New("not found")
)

// FieldError describes a single invalid request field
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError is returned when a request payload is rejected before persistence
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError for one field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// PersistenceError wraps a failure reported by the storage collaborator
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence wraps err as a PersistenceError unless it is nil or already a domain error
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) || errors.Is(err, ErrDuplicateEmail) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
