package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrOrderNotFound signals a missing source order record.
	ErrOrderNotFound = errors.New("order not found")
	// ErrValidation signals a malformed search query.
	ErrValidation = errors.New("validation failed")
	// ErrUnsupportedField signals a field outside the indexed field set.
	ErrUnsupportedField = errors.New("unsupported field")
	// ErrUnsupportedOperator signals an operator not allowed for the field's type.
	ErrUnsupportedOperator = errors.New("unsupported operator")
	// ErrJobRunning signals that an indexing job of the same type is already in flight.
	ErrJobRunning = errors.New("indexing job already running")
)

// ValidationErrors accumulates per-condition validation failures so a caller
// sees every problem in one response instead of the first.
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(msgs, "; "))
}

func (e *ValidationErrors) Unwrap() error { return ErrValidation }

// Add appends a validation failure.
func (e *ValidationErrors) Add(err error) { e.Errors = append(e.Errors, err) }

// HasErrors reports whether any failure was recorded.
func (e *ValidationErrors) HasErrors() bool { return len(e.Errors) > 0 }

// ErrOrNil returns the accumulated error, or nil when everything validated.
func (e *ValidationErrors) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}
