package service

import (
	"errors"
	"fmt"
)

// Common service-level errors. Handlers match on these with errors.Is
// to pick response codes without knowing about store internals.
var (
	// ErrAssessmentNotFound indicates the requested assessment does not exist.
	ErrAssessmentNotFound = errors.New("assessment not found")

	// ErrAnalysisNotFound indicates no analysis exists for the assessment,
	// typically because processing has not completed yet.
	ErrAnalysisNotFound = errors.New("analysis not found")

	// ErrNotOwned indicates the authenticated user does not own the
	// requested resource.
	ErrNotOwned = errors.New("resource not owned by user")
)

// AssessmentServiceError wraps errors from assessment operations with
// context about which operation failed.
type AssessmentServiceError struct {
	// Operation is the name of the operation that failed.
	Operation string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *AssessmentServiceError) Error() string {
	return fmt.Sprintf("assessment service: %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *AssessmentServiceError) Unwrap() error {
	return e.Err
}

// NewAssessmentServiceError creates an AssessmentServiceError, passing
// through well-known sentinel errors unchanged so callers can match on
// them directly.
func NewAssessmentServiceError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAssessmentNotFound) ||
		errors.Is(err, ErrAnalysisNotFound) ||
		errors.Is(err, ErrNotOwned) {
		return err
	}
	return &AssessmentServiceError{Operation: operation, Err: err}
}
