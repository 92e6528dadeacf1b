package errors

import (
	"context"
	"errors"
	"fmt"

	rdhttp "github.com/randalmurphal/reviewdesk/http"
)

// AuthenticationError reports a missing or rejected credential. All state
// tied to the previous identity is cleared when one is observed.
type AuthenticationError struct {
	// Op is the operation that failed (e.g. "list inbox").
	Op string

	// Reason is the server text, or a local explanation.
	Reason string

	Err error
}

func (e *AuthenticationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: not authenticated", e.Op)
	}
	return fmt.Sprintf("%s: not authenticated: %s", e.Op, e.Reason)
}

// Unwrap returns ErrNotAuthenticated and the cause.
func (e *AuthenticationError) Unwrap() []error {
	return []error{ErrNotAuthenticated, e.Err}
}

// AuthorizationError reports that the current role may not perform Op. It is
// expected and non-retryable.
type AuthorizationError struct {
	Op     string
	Role   string
	Reason string
	Err    error
}

func (e *AuthorizationError) Error() string {
	role := e.Role
	if role == "" {
		role = "unknown role"
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s not permitted for %s: %s", e.Op, role, e.Reason)
	}
	return fmt.Sprintf("%s not permitted for %s", e.Op, role)
}

// Unwrap returns ErrPermissionDenied and the cause.
func (e *AuthorizationError) Unwrap() []error {
	return []error{ErrPermissionDenied, e.Err}
}

// PreconditionError is a local validation failure. No request was sent.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Unwrap returns ErrPrecondition.
func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}

// FetchError is a non-success response from a listing or audit call. Text is
// the server body, verbatim.
type FetchError struct {
	Op   string
	Text string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Text != "" {
		return e.Text
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + " failed"
}

// Unwrap returns ErrFetch and the cause.
func (e *FetchError) Unwrap() []error {
	return []error{ErrFetch, e.Err}
}

// TransitionError is a refused approve or reject. Text is the server body,
// verbatim.
type TransitionError struct {
	Op     string
	ItemID string
	Text   string
	Err    error
}

func (e *TransitionError) Error() string {
	if e.Text != "" {
		return e.Text
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.ItemID, e.Err)
	}
	return fmt.Sprintf("%s %s failed", e.Op, e.ItemID)
}

// Unwrap returns ErrTransition and the cause.
func (e *TransitionError) Unwrap() []error {
	return []error{ErrTransition, e.Err}
}

// Kind selects which typed error Classify produces for failures that are
// neither authentication nor authorization problems.
type Kind int

// Classification kinds.
const (
	KindFetch Kind = iota
	KindTransition
)

// Classify maps a transport error from op onto the review error taxonomy.
// 401 becomes AuthenticationError, 403 AuthorizationError, and anything else
// a FetchError or TransitionError depending on kind. Context cancellation and
// errors already classified pass through unchanged.
func Classify(op string, kind Kind, itemID, role string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrPrecondition) || errors.Is(err, ErrStale) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	text, _ := rdhttp.ServerText(err)

	switch {
	case rdhttp.IsUnauthorized(err):
		return &AuthenticationError{Op: op, Reason: text, Err: err}
	case rdhttp.IsForbidden(err):
		return &AuthorizationError{Op: op, Role: role, Reason: text, Err: err}
	}

	if text == "" && IsConnectionError(err) {
		err = fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if kind == KindTransition {
		return &TransitionError{Op: op, ItemID: itemID, Text: text, Err: err}
	}
	return &FetchError{Op: op, Text: text, Err: err}
}
