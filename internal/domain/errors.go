package domain

import (
	"errors"
	"fmt"
)

// -----------------------------
// NotFoundError
// -----------------------------

// NotFoundError indicates a named resource does not exist. Evaluation and
// management operations surface it as-is; it is never coerced into a
// default "disabled" result.
type NotFoundError struct {
	Resource string
	Key      string
}

func NewNotFoundError(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// -----------------------------
// ValidationError
// -----------------------------

// ValidationError indicates malformed input (bad key, out-of-range rollout,
// reserved key). Rejected before any cache or store is touched.
type ValidationError struct {
	Message string
	Cause   error
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func NewValidationErrorWithCause(message string, cause error) *ValidationError {
	return &ValidationError{Message: message, Cause: cause}
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// -----------------------------
// APIError
// -----------------------------

// APIError is a well-formed error response from the remote service (4xx/5xx).
// It is never retried by the transport.
type APIError struct {
	StatusCode int
	Message    string
}

func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

// -----------------------------
// NetworkError
// -----------------------------

// NetworkError is a transport-level failure (connection refused, reset, DNS).
// The request never got through; retried up to the configured bound.
type NetworkError struct {
	Err error
}

func NewNetworkError(err error) *NetworkError {
	return &NetworkError{Err: err}
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// -----------------------------
// TimeoutError
// -----------------------------

// TimeoutError means an attempt exceeded its deadline. Kept distinct from
// NetworkError so callers can tell "never got through" from "too slow".
type TimeoutError struct {
	Err error
}

func NewTimeoutError(err error) *TimeoutError {
	return &TimeoutError{Err: err}
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
