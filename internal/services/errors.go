package services

import (
	"errors"
	"fmt"
)

// Failure taxonomy for the review engine. Every error leaves the data model
// unchanged: preconditions are checked in full before the first write.
var (
	ErrNotFound          = errors.New("not found")
	ErrNotAssignee       = errors.New("no pending assignment for this user on the current step")
	ErrAlreadyDecided    = errors.New("assignment already decided")
	ErrInvalidTransition = errors.New("operation not allowed in the request's current status")
)

// ValidationError reports a malformed workflow definition, naming the
// offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
