// Package resume maintains the invariants of a ResumeDocument: entry identity, ordering,
// entry-level staging, legacy migration and validation.
package resume

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOrder is returned when a reorder request is not a permutation of the current ids
var ErrInvalidOrder = errors.New("order must list every work experience id exactly once")

// DecodeError represents an error decoding or migrating stored document JSON
type DecodeError struct {
	Message string
	Cause   error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decode error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("decode error: %s", e.Message)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// FieldError is a single invalid field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every invariant a document breaks
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid resume document:")
	for _, fe := range e.Errors {
		sb.WriteString(fmt.Sprintf(" %s: %s;", fe.Field, fe.Message))
	}
	return strings.TrimSuffix(sb.String(), ";")
}

func (e *ValidationError) add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// ErrEntryNotFound is returned by entry-level calls whose caller must know the id was stale
var ErrEntryNotFound = errors.New("work experience entry not found")
