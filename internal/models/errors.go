package models

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateKey     = errors.New("duplicate key violation")
	ErrInvalidInput     = errors.New("invalid input")
	ErrModelUnavailable = errors.New("probability model unavailable")
	ErrMalformedRecord  = errors.New("malformed record")
)

// ValidationError describes why a single record was rejected. It wraps
// ErrMalformedRecord so callers can match with errors.Is.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Code)
}

// Unwrap lets errors.Is(err, ErrMalformedRecord) succeed.
func (e *ValidationError) Unwrap() error {
	return ErrMalformedRecord
}
