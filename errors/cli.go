package errors

import (
	"errors"
	"fmt"
	"strings"
)

// CLIError wraps an error with user-friendly context and suggestions.
type CLIError struct {
	// Err is the underlying error
	Err error

	// Message is a user-friendly description of what went wrong
	Message string

	// Suggestion is an actionable hint for the user
	Suggestion string

	// Details provides additional context (optional)
	Details string
}

func (e *CLIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Details != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Details)
	}

	if e.Suggestion != "" {
		sb.WriteString("\n\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// ErrorMessenger provides customizable error messages.
// Implement this interface to customize suggestions for your front end.
type ErrorMessenger interface {
	// AuthErrorMessage returns the message and suggestion for unauthenticated errors.
	AuthErrorMessage() (message, suggestion string)

	// PermissionDeniedMessage returns the suggestion shown under a role failure.
	PermissionDeniedMessage() (message, suggestion string)

	// ConnectionErrorMessage returns the message and suggestion for connection errors.
	// The serverURL parameter is the URL that failed to connect.
	ConnectionErrorMessage(serverURL string) (message, suggestion string)

	// TimeoutErrorMessage returns the message and suggestion for timeout errors.
	TimeoutErrorMessage(serverURL string) (message, suggestion string)
}

// DefaultMessenger provides default error messages.
type DefaultMessenger struct{}

func (m DefaultMessenger) AuthErrorMessage() (string, string) {
	return "You are not logged in.", "Run 'reviewdesk login' to authenticate."
}

func (m DefaultMessenger) PermissionDeniedMessage() (string, string) {
	return "Your role does not allow this action.",
		"Reload your session with 'reviewdesk whoami' if your role recently changed."
}

func (m DefaultMessenger) ConnectionErrorMessage(serverURL string) (string, string) {
	return fmt.Sprintf("Cannot connect to server at %s", serverURL),
		"Check that:\n  - The server is running\n  - The URL is correct\n  - Your network connection is working"
}

func (m DefaultMessenger) TimeoutErrorMessage(serverURL string) (string, string) {
	return fmt.Sprintf("Connection to %s timed out", serverURL),
		"The server may be overloaded or unreachable.\nTry again in a moment."
}

// WrapConfig configures error wrapping behavior.
type WrapConfig struct {
	Messenger ErrorMessenger
	ServerURL string
}

// Option configures WrapConfig.
type Option func(*WrapConfig)

// WithMessenger sets a custom error messenger.
func WithMessenger(m ErrorMessenger) Option {
	return func(c *WrapConfig) {
		c.Messenger = m
	}
}

// WithServerURL names the backend in connection messages.
func WithServerURL(url string) Option {
	return func(c *WrapConfig) {
		c.ServerURL = url
	}
}

func getConfig(opts []Option) *WrapConfig {
	cfg := &WrapConfig{
		Messenger: DefaultMessenger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Describe converts err into the message a user sees. Server-supplied text
// is kept verbatim; local failures get a suggestion. Describe returns nil for
// nil and for stale responses, which are never shown.
func Describe(err error, opts ...Option) *CLIError {
	if err == nil || IsStale(err) {
		return nil
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	cfg := getConfig(opts)
	m := cfg.Messenger

	var (
		authErr  *AuthenticationError
		permErr  *AuthorizationError
		preErr   *PreconditionError
		fetchErr *FetchError
		transErr *TransitionError
	)

	switch {
	case errors.As(err, &authErr):
		msg, suggestion := m.AuthErrorMessage()
		return &CLIError{Err: err, Message: msg, Details: authErr.Reason, Suggestion: suggestion}
	case errors.As(err, &permErr):
		msg, suggestion := m.PermissionDeniedMessage()
		if permErr.Reason != "" {
			msg = permErr.Reason
		}
		return &CLIError{Err: err, Message: msg, Suggestion: suggestion}
	case errors.As(err, &preErr):
		return &CLIError{Err: err, Message: preErr.Error()}
	case errors.As(err, &transErr) && transErr.Text != "":
		return &CLIError{Err: err, Message: transErr.Text}
	case errors.As(err, &fetchErr) && fetchErr.Text != "":
		return &CLIError{Err: err, Message: fetchErr.Text}
	}

	if out, ok := WrapConnectionError(err, cfg.ServerURL, opts...).(*CLIError); ok {
		return out
	}
	return &CLIError{Err: err, Message: err.Error()}
}

// WrapConnectionError wraps connection-related errors with helpful guidance.
func WrapConnectionError(err error, serverURL string, opts ...Option) error {
	if err == nil {
		return nil
	}

	errStr := strings.ToLower(err.Error())
	messenger := getConfig(opts).Messenger

	// Check for connection refused
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "dial tcp") {
		msg, suggestion := messenger.ConnectionErrorMessage(serverURL)
		return &CLIError{
			Err:        err,
			Message:    msg,
			Suggestion: suggestion,
		}
	}

	// Check for timeout
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		msg, suggestion := messenger.TimeoutErrorMessage(serverURL)
		return &CLIError{
			Err:        err,
			Message:    msg,
			Suggestion: suggestion,
		}
	}

	return err
}

// NewNotAuthenticatedError creates an error for an operation attempted
// without a credential.
func NewNotAuthenticatedError(op string) error {
	return &AuthenticationError{Op: op, Reason: "no credential"}
}

// NewPreconditionError creates a local validation failure.
func NewPreconditionError(op, reason string) error {
	return &PreconditionError{Op: op, Reason: reason}
}
