package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
	ErrPaymentFailed  = errors.New("payment failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrUpstreamError  = errors.New("upstream error")
	ErrMisconfigured  = errors.New("missing configuration")
)

// ErrorKind classifies an APIError. It is logged but never serialized;
// clients only see the message.
type ErrorKind string

const (
	KindValidation    ErrorKind = "VALIDATION_ERROR"
	KindNotFound      ErrorKind = "NOT_FOUND"
	KindPayment       ErrorKind = "PAYMENT_ERROR"
	KindAuth          ErrorKind = "AUTH_ERROR"
	KindIntegration   ErrorKind = "INTEGRATION_ERROR"
	KindConfiguration ErrorKind = "CONFIGURATION_ERROR"
	KindInternal      ErrorKind = "INTERNAL_ERROR"
)

// APIError is the error type returned by every operation that can fail for a
// reason the caller should see. Handlers convert it into {"error": Message}.
type APIError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int   // default HTTP status; routes may override
	Err        error // wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is reports whether err is an APIError of the given kind.
func Is(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// NewValidationError creates a 400 error for malformed or missing input.
func NewValidationError(message string) *APIError {
	return &APIError{
		Kind:       KindValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        ErrInvalidRequest,
	}
}

// NewNotFoundError creates a 404 error for an unknown resource.
// resource is capitalized by the caller, e.g. "Product" yields "Product not found".
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Kind:       KindNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

// NewPaymentError creates a 402 error for an inactive or invalid payment credential.
func NewPaymentError(reason string) *APIError {
	return &APIError{
		Kind:       KindPayment,
		Message:    reason,
		StatusCode: http.StatusPaymentRequired,
		Err:        ErrPaymentFailed,
	}
}

// NewAuthError creates a 401 error for a bad webhook signature or partner key.
func NewAuthError(reason string) *APIError {
	return &APIError{
		Kind:       KindAuth,
		Message:    reason,
		StatusCode: http.StatusUnauthorized,
		Err:        ErrUnauthorized,
	}
}

// NewIntegrationError creates a 502 error for a failed call to an external dependency.
func NewIntegrationError(service string, err error) *APIError {
	return &APIError{
		Kind:       KindIntegration,
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: http.StatusBadGateway,
		Err:        fmt.Errorf("%w: %v", ErrUpstreamError, err),
	}
}

// NewUpstreamStatusError creates a 502 error for a non-success response from an
// external dependency. The status code is part of the client-visible message.
func NewUpstreamStatusError(service string, statusCode int) *APIError {
	return &APIError{
		Kind:       KindIntegration,
		Message:    fmt.Sprintf("%s request failed with status %d", service, statusCode),
		StatusCode: http.StatusBadGateway,
		Err:        ErrUpstreamError,
	}
}

// NewConfigurationError creates a 500 error for a missing server-side secret.
func NewConfigurationError(message string) *APIError {
	return &APIError{
		Kind:       KindConfiguration,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        ErrMisconfigured,
	}
}

// NewInternalError hides err behind a generic message. The cause is kept for logs.
func NewInternalError(err error) *APIError {
	return &APIError{
		Kind:       KindInternal,
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}
