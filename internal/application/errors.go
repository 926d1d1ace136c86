package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/roombook/internal/series"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrUnauthorized is returned when a guarded operation is attempted
	// without the required credential.
	ErrUnauthorized = errors.New("application: unauthorized")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ConflictError reports that a requested slot is occupied, carrying the
// blocking reservations for user-facing display.
type ConflictError struct {
	Blocking []series.BlockingRef
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil || len(c.Blocking) == 0 {
		return "reservation conflicts with an existing booking"
	}
	titles := make([]string, 0, len(c.Blocking))
	for _, ref := range c.Blocking {
		titles = append(titles, fmt.Sprintf("%q (%s-%s)", ref.Title, ref.Start, ref.End))
	}
	return "reservation conflicts with " + strings.Join(titles, ", ")
}
