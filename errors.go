package gonfalon

import "github.com/OrlandoBitencourt/gonfalon/internal/domain"

// The SDK surfaces the same typed errors the service uses internally.
// Callers classify failures with the Is helpers below rather than by
// matching error strings.
type (
	NotFoundError   = domain.NotFoundError
	ValidationError = domain.ValidationError
	APIError        = domain.APIError
	NetworkError    = domain.NetworkError
	TimeoutError    = domain.TimeoutError
)

// IsNotFound reports whether err means the requested flag does not exist.
func IsNotFound(err error) bool { return domain.IsNotFound(err) }

// IsValidationError reports whether err was caused by invalid input.
func IsValidationError(err error) bool { return domain.IsValidationError(err) }

// IsAPIError reports whether err is a well-formed non-2xx response from
// the service. These are never retried by the transport.
func IsAPIError(err error) bool { return domain.IsAPIError(err) }

// IsNetworkError reports whether err was a connectivity failure.
func IsNetworkError(err error) bool { return domain.IsNetworkError(err) }

// IsTimeout reports whether err was a timeout, either of a single
// attempt or of the caller's context deadline.
func IsTimeout(err error) bool { return domain.IsTimeout(err) }
