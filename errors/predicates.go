package errors

import (
	"errors"
	"strings"
)

// IsAuthError checks if an error is authentication-related.
func IsAuthError(err error) bool {
	return err != nil && errors.Is(err, ErrNotAuthenticated)
}

// IsPermissionError checks if an error is an authorization (role) failure.
func IsPermissionError(err error) bool {
	return err != nil && errors.Is(err, ErrPermissionDenied)
}

// IsPreconditionError checks if an error was raised locally before any request.
func IsPreconditionError(err error) bool {
	return err != nil && errors.Is(err, ErrPrecondition)
}

// IsFetchError checks if an error is a failed listing or audit call.
func IsFetchError(err error) bool {
	return err != nil && errors.Is(err, ErrFetch)
}

// IsTransitionError checks if an error is a refused approve or reject.
func IsTransitionError(err error) bool {
	return err != nil && errors.Is(err, ErrTransition)
}

// IsStale checks if a response was discarded because its context changed.
func IsStale(err error) bool {
	return err != nil && errors.Is(err, ErrStale)
}

// IsConnectionError checks if an error is connection-related.
// This includes TLS errors, timeouts, and network connectivity issues.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrConnectionFailed) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	// Network connectivity
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "dial tcp") {
		return true
	}
	// TLS/certificate errors
	if strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") {
		return true
	}
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}
