package domain

import (
	"errors"
	"fmt"
)

// Failure categories for verification and extraction operations.
// Every recoverable failure in the pipeline wraps one of these sentinels
// so callers and log lines can classify it without string matching.
var (
	// ErrInvalidInput indicates the caller supplied unusable input,
	// such as an empty query.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingContext indicates an extraction was requested with no
	// usable grounding context.
	ErrMissingContext = errors.New("missing context")

	// ErrUpstreamFailure indicates the underlying model call failed
	// (connectivity, timeout, or a provider-reported error).
	ErrUpstreamFailure = errors.New("upstream model failure")

	// ErrExtractionFailure indicates schema construction or result
	// normalization failed during extraction.
	ErrExtractionFailure = errors.New("extraction failure")
)

// ErrorCategory returns the log-friendly category label for an error,
// based on which sentinel it wraps. Unclassified errors report "internal".
func ErrorCategory(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrMissingContext):
		return "missing_context"
	case errors.Is(err, ErrUpstreamFailure):
		return "upstream_failure"
	case errors.Is(err, ErrExtractionFailure):
		return "extraction_failure"
	default:
		return "internal"
	}
}

// PipelineError attaches an operation name to a categorized failure.
// It preserves the sentinel chain for errors.Is classification.
type PipelineError struct {
	// Operation names the pipeline step that failed, e.g. "check_fact".
	Operation string

	// Err is the underlying categorized error.
	Err error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error for errors.Is / errors.As.
func (e *PipelineError) Unwrap() error { return e.Err }

// NewPipelineError wraps err with the operation that produced it.
func NewPipelineError(operation string, err error) *PipelineError {
	return &PipelineError{Operation: operation, Err: err}
}
