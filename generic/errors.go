/*
errors.go - Centralized error types for the calculation engine and HR processes

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Argument errors - Missing, contradictory or out-of-order inputs
  2. Workflow errors - Illegal process status transitions
  3. Store errors - Missing records, conflicting writes

USAGE:
  if errors.Is(err, generic.ErrInvalidArgument) {
      // translate into a user-facing message
  }

SEE ALSO:
  - calculation/params.go: Raises InvalidArgumentError
  - hrprocess/status.go: Raises ErrInvalidTransition
  - api/handlers.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidArgument is returned when a calculation input is missing,
	// contradictory, or has dates in the wrong order. Never retryable.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidTransition is returned when a process status change is not
	// allowed by the workflow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConcurrentModification is returned when a status update finds the
	// process in a different status than the caller observed.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrProcessNotFound is returned when a referenced process doesn't exist.
	ErrProcessNotFound = errors.New("process not found")

	// ErrDuplicate is returned when a record with the same id already exists.
	ErrDuplicate = errors.New("duplicate record")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidArgumentError names the offending field.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// InvalidArgument is a shorthand constructor.
func InvalidArgument(field, reason string) error {
	return &InvalidArgumentError{Field: field, Reason: reason}
}

// TransitionError provides details about a rejected status change.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move process from %q to %q", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsConflict returns true if the error is a workflow or write conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrDuplicate)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrProcessNotFound)
}
