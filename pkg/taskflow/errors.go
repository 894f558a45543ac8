package taskflow

import (
	"errors"
	"fmt"
)

// Validation errors, rejected before any side effect occurs.
var (
	// ErrUnsupportedFlow indicates a flow name outside the closed registry.
	ErrUnsupportedFlow = errors.New("unsupported flow")

	// ErrUnsupportedMode indicates the flow does not support the requested
	// execution mode.
	ErrUnsupportedMode = errors.New("unsupported request mode")

	// ErrMissingField indicates a required flow data field is absent.
	ErrMissingField = errors.New("missing required flow data field")
)

// IsValidationError checks if an error should be rejected as bad input
// (HTTP 400 at the web boundary).
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnsupportedFlow) ||
		errors.Is(err, ErrUnsupportedMode) ||
		errors.Is(err, ErrMissingField)
}

// SubmitError wraps a build or run failure that occurred after validation
// passed. Completed task side effects have been compensated best-effort and
// the zone status carries the underlying error text.
type SubmitError struct {
	FlowName string
	Err      error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("flow %q submission failed: %v", e.FlowName, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// IsSubmitError checks if an error is a flow submission failure.
func IsSubmitError(err error) bool {
	var submitErr *SubmitError

	return errors.As(err, &submitErr)
}
