package llm

import (
	"context"
	"errors"
	"fmt"
)

// Common errors returned by the client and providers.
var (
	// ErrEmptyAPIKey indicates that an API key was required but not provided.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")
	// ErrEmptyResponse indicates that the provider returned an empty body.
	ErrEmptyResponse = errors.New("empty response from API")
	// ErrNoResponseChoice indicates that the response contained no choices.
	ErrNoResponseChoice = errors.New("no response choices returned")
)

// ErrorType categorizes provider failures so callers can make uniform
// decisions such as retryability without inspecting provider-specific
// error values.
type ErrorType int

const (
	// ErrorTypeUnknown indicates an error of an undetermined category.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeAuthentication indicates an invalid or rejected credential.
	ErrorTypeAuthentication
	// ErrorTypeRateLimit indicates a provider-side rate limit was hit.
	ErrorTypeRateLimit
	// ErrorTypeBadRequest indicates malformed parameters or input.
	ErrorTypeBadRequest
	// ErrorTypeNotFound indicates a missing resource such as a model name.
	ErrorTypeNotFound
	// ErrorTypeServerError indicates a failure on the provider's side.
	ErrorTypeServerError
	// ErrorTypeContentPolicy indicates the request was blocked by a filter.
	ErrorTypeContentPolicy
	// ErrorTypeNetwork indicates a client-side connectivity problem.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates the request exceeded its deadline.
	ErrorTypeTimeout
)

// ProviderError normalizes provider-specific failures into a single shape
// carrying the classified type, the origin provider, and the HTTP status
// when one was available.
type ProviderError struct {
	// Type classifies the error into a standard category.
	Type ErrorType
	// Provider names the backend that produced the error.
	Provider string
	// StatusCode holds the HTTP status from the response, if applicable.
	StatusCode int
	// Message is the user-facing description of the failure.
	Message string
	// WrappedError preserves the original error for chaining.
	WrappedError error
}

// Error satisfies the error interface.
func (e *ProviderError) Error() string {
	base := fmt.Sprintf("%s error", e.Provider)
	if e.StatusCode > 0 {
		base += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if typeStr := e.typeString(); typeStr != "" {
		base += fmt.Sprintf(" [%s]", typeStr)
	}
	if e.Message != "" {
		base += ": " + e.Message
	}
	if e.WrappedError != nil {
		base += fmt.Sprintf(": %v", e.WrappedError)
	}
	return base
}

// Unwrap exposes the underlying error to errors.Is and errors.As.
func (e *ProviderError) Unwrap() error { return e.WrappedError }

// IsRetryable reports whether a failed request is worth retrying. Only
// transient categories qualify; authentication and bad-request failures
// will not heal on retry.
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

func (e *ProviderError) typeString() string {
	switch e.Type {
	case ErrorTypeAuthentication:
		return "authentication"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeBadRequest:
		return "bad_request"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeServerError:
		return "server_error"
	case ErrorTypeContentPolicy:
		return "content_policy"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return ""
	}
}

// NewProviderError builds a standardized error from a provider response.
func NewProviderError(provider string, errType ErrorType, statusCode int, message string, wrapped error) *ProviderError {
	return &ProviderError{
		Type:         errType,
		Provider:     provider,
		StatusCode:   statusCode,
		Message:      message,
		WrappedError: wrapped,
	}
}

// ErrorClassifier turns provider-specific failures into ProviderError
// instances using the HTTP status code or context state as the signal.
type ErrorClassifier struct {
	// Provider names the backend this classifier serves.
	Provider string
}

// ClassifyHTTPError maps an HTTP status code to a ProviderError.
func (ec *ErrorClassifier) ClassifyHTTPError(statusCode int, message string, err error) *ProviderError {
	var errType ErrorType
	var userMessage string

	switch statusCode {
	case 401, 403:
		errType = ErrorTypeAuthentication
		userMessage = fmt.Sprintf("%s authentication failed", ec.Provider)
	case 429:
		errType = ErrorTypeRateLimit
		userMessage = fmt.Sprintf("%s rate limit exceeded", ec.Provider)
	case 400:
		errType = ErrorTypeBadRequest
		userMessage = message
	case 404:
		errType = ErrorTypeNotFound
		userMessage = message
	case 500, 502, 503, 504:
		errType = ErrorTypeServerError
		userMessage = message
	default:
		if statusCode >= 400 && statusCode < 500 {
			errType = ErrorTypeBadRequest
		} else if statusCode >= 500 {
			errType = ErrorTypeServerError
		} else {
			errType = ErrorTypeUnknown
		}
		userMessage = message
	}

	return NewProviderError(ec.Provider, errType, statusCode, userMessage, err)
}

// ClassifyContextError maps context cancellation and deadline errors to a
// ProviderError with a network type, which keeps them retryable.
func (ec *ErrorClassifier) ClassifyContextError(err error) *ProviderError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewProviderError(ec.Provider, ErrorTypeTimeout, 0, "context deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return NewProviderError(ec.Provider, ErrorTypeNetwork, 0, "request canceled", err)
	default:
		return NewProviderError(ec.Provider, ErrorTypeUnknown, 0, "", err)
	}
}
