// Package errors provides the review error taxonomy and user-facing messaging.
//
// Core types:
//   - AuthenticationError: missing or invalid credential; dependent state is cleared
//   - AuthorizationError: valid credential, insufficient role; expected, not retried
//   - PreconditionError: local validation failed; no request was sent
//   - FetchError: a listing or audit call returned a non-success response
//   - TransitionError: an approve or reject was refused by the server
//   - CLIError: message, suggestion and details ready for display
//
// Server text carried by FetchError and TransitionError is kept verbatim.
//
// Example usage:
//
//	if err := desk.Approve(ctx, id, comment); err != nil {
//	    if cli := errors.Describe(err, errors.WithServerURL(base)); cli != nil {
//	        fmt.Fprintln(os.Stderr, cli)
//	    }
//	}
//
//	// Check error types
//	if errors.IsAuthError(err) {
//	    // prompt for login
//	}
package errors
