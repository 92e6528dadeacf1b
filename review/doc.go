// Package review holds the working state of one review session and the
// intents that change it.
//
// A Desk owns the loaded inbox, the selected item, the pending comment, the
// chosen audit image and the latest audit report. All of it is dropped in a
// single Reset whenever the session credential changes, so nothing from a
// previous identity survives a sign-out or a token refresh.
//
// Every remote call captures a ticket at dispatch: the session epoch plus a
// per-operation sequence and, for item audits, the selection generation.
// When the response arrives and the ticket no longer matches, the response
// is dropped and ErrStale is returned to the caller.
//
// Approve and Reject send exactly one request. On success the selection is
// cleared and the inbox is fetched again; the list is never patched locally.
// On failure the previous state is kept and the error is recorded.
package review
