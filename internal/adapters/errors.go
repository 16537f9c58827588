package adapters

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimitExceeded is returned before any network activity when the
	// supplier's daily request budget is exhausted.
	ErrRateLimitExceeded = errors.New("daily request limit exceeded")

	// ErrAuthFailed indicates the supplier rejected the credentials
	ErrAuthFailed = errors.New("supplier authentication failed")

	// ErrNotFound indicates the requested external resource does not exist
	ErrNotFound = errors.New("external resource not found")

	// ErrSupplierUnavailable indicates the supplier could not be reached at
	// the transport level
	ErrSupplierUnavailable = errors.New("supplier unavailable")

	// ErrValidationFailed indicates the request was rejected before reaching
	// the supplier
	ErrValidationFailed = errors.New("request validation failed")
)

// APIError wraps a non-2xx supplier response
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supplier api error on %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// Retryable reports whether the call may succeed on a later attempt
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// UnsupportedSupplierError is returned when a supplier type has no registered adapter
type UnsupportedSupplierError struct {
	SupplierType string
}

func (e *UnsupportedSupplierError) Error() string {
	return "unsupported supplier: " + e.SupplierType
}
