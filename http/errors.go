// Package http provides the shared HTTP client used to reach the review backend.
package http

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors, selected by response status.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates invalid or missing authentication.
	ErrUnauthorized = errors.New("authentication failed")

	// ErrForbidden indicates the caller lacks permission for the operation.
	ErrForbidden = errors.New("permission denied")

	// ErrConflict indicates the resource is not in a state that allows the operation.
	ErrConflict = errors.New("conflict")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrBadRequest indicates the request was malformed.
	ErrBadRequest = errors.New("bad request")

	// ErrServerError indicates a server-side error occurred.
	ErrServerError = errors.New("server error")
)

// APIError is a non-2xx response. Body holds the response text exactly as
// the server sent it so callers can show it to the user unchanged.
type APIError struct {
	// Service is the name of the remote (e.g. "reviewdesk").
	Service string

	// StatusCode is the HTTP status code returned.
	StatusCode int

	// Body is the raw response body.
	Body string

	// Endpoint is the API path that was called.
	Endpoint string

	// RequestID is the request ID for debugging (if available).
	RequestID string
}

// Message returns the server text, or the status text when the body was empty.
func (e *APIError) Message() string {
	if msg := strings.TrimSpace(e.Body); msg != "" {
		return msg
	}
	return statusText(e.StatusCode)
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s API error (%d) at %s [%s]: %s",
			e.Service, e.StatusCode, e.Endpoint, e.RequestID, e.Message())
	}
	return fmt.Sprintf("%s API error (%d) at %s: %s",
		e.Service, e.StatusCode, e.Endpoint, e.Message())
}

// Unwrap returns the underlying sentinel error based on status code.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case 400, 422:
		return ErrBadRequest
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 409:
		return ErrConflict
	case 429:
		return ErrRateLimited
	default:
		if e.StatusCode >= 500 {
			return ErrServerError
		}
		return nil
	}
}

// IsNotFound reports whether the error indicates a resource was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized reports whether the error indicates authentication failed.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden reports whether the error indicates permission was denied.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsConflict reports whether the server refused because of resource state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// ServerText extracts the verbatim server message from err, if it carries one.
func ServerText(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message(), true
	}
	return "", false
}
