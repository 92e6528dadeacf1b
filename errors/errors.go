package errors

import "errors"

// Sentinel errors. Every typed error in this package unwraps to one of these.
var (
	// ErrNotAuthenticated indicates a missing or invalid credential.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrPermissionDenied indicates a valid credential with an insufficient role.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrPrecondition indicates local validation failed before any request.
	ErrPrecondition = errors.New("precondition failed")

	// ErrFetch indicates a listing or lookup call returned a non-success response.
	ErrFetch = errors.New("fetch failed")

	// ErrTransition indicates an approve or reject call was refused.
	ErrTransition = errors.New("transition failed")

	// ErrConnectionFailed indicates the server is unreachable.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrStale indicates a response arrived after the session or selection it
	// was issued for had changed, and was discarded.
	ErrStale = errors.New("stale response discarded")
)
