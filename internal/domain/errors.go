package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies an error class for API consumers.
type ErrorCode string

const (
	CodeValidation          ErrorCode = "VALIDATION_ERROR"
	CodeRateLimited         ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	CodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	CodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// Error is the typed error carried across the engine boundary. The HTTP
// adapter maps it onto the response envelope; everything else treats it as a
// normal wrapped error.
type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewValidationError reports a malformed request. Never retried.
func NewValidationError(format string, args ...any) *Error {
	return &Error{
		Code:       CodeValidation,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusBadRequest,
	}
}

// NewRateLimitError reports that the internal gate for an endpoint class
// tripped. The caller must back off.
func NewRateLimitError(class string) *Error {
	return &Error{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("rate limit exceeded for %s requests", class),
		StatusCode: http.StatusTooManyRequests,
	}
}

// NewUpstreamTimeout reports that an upstream call exceeded its per-attempt
// deadline after the retry budget was spent.
func NewUpstreamTimeout(service string, err error) *Error {
	return &Error{
		Code:       CodeUpstreamTimeout,
		Message:    fmt.Sprintf("%s request timed out", service),
		StatusCode: http.StatusGatewayTimeout,
		Err:        err,
	}
}

// NewUpstreamUnavailable reports an exhausted retry budget or a malformed
// upstream payload, carrying the last underlying error.
func NewUpstreamUnavailable(service string, err error) *Error {
	return &Error{
		Code:       CodeUpstreamUnavailable,
		Message:    fmt.Sprintf("%s is unavailable", service),
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}

// NewInternalError is the catch-all for unexpected failures.
func NewInternalError(err error) *Error {
	return &Error{
		Code:       CodeInternal,
		Message:    "internal error",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// AsError extracts a typed *Error from err, falling back to an internal
// error so callers always get a code and status.
func AsError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return NewInternalError(err)
}
