package cronos

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when the client configuration is incomplete
	ErrInvalidConfig = errors.New("invalid cronos client configuration")

	// ErrValidation is returned when the API rejects the request payload
	ErrValidation = errors.New("registration request rejected")

	// ErrUnauthorized is returned when the application token is missing or invalid
	ErrUnauthorized = errors.New("unauthorized: invalid application credentials")

	// ErrConflict is returned when the document is already registered
	ErrConflict = errors.New("document already registered")

	// ErrNotFound is returned when the individual does not exist upstream
	ErrNotFound = errors.New("individual not found")

	// ErrService is returned when the registration service fails
	ErrService = errors.New("registration service error")

	// ErrNetwork is returned when there's a network communication error
	ErrNetwork = errors.New("network error")
)

// APIError carries the upstream status and parsed body of a failed call.
// The wrapped sentinel is selected from the HTTP status, so callers can
// branch with errors.Is and still reach the Response via errors.As.
type APIError struct {
	Err        error
	StatusCode int
	Response   *Response
	Body       string
}

func (e *APIError) Error() string {
	if e.Response != nil && e.Response.Message != "" {
		return fmt.Sprintf("cronos api error: status=%d message=%s", e.StatusCode, e.Response.Message)
	}
	return fmt.Sprintf("cronos api error: status=%d body=%s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func sentinelForStatus(status int) error {
	switch {
	case status == 401 || status == 403:
		return ErrUnauthorized
	case status == 404:
		return ErrNotFound
	case status == 409:
		return ErrConflict
	case status == 400 || status == 422:
		return ErrValidation
	default:
		return ErrService
	}
}
