// Package devserver is an in-memory review backend for local development
// and tests.
//
// It serves the same contract the client expects from the real backend:
//
//	POST /auth/token                     password and refresh_token grants
//	GET  /me                             {"role", "email"}
//	GET  /inbox                          {"items": [...]}, newest first
//	POST /content/{id}/approve|reject    approvers only; 409 once decided
//	POST /content/{id}/audit-image       approver_b only; multipart "file"
//	POST /brands/{brandID}/audit-image   approver_b only; multipart "file"
//	GET  /evidence/{token}               stored audit image; 410 when expired
//	POST /content                        pipeline ingest, X-Ingest-Key auth
//
// Error bodies are plain text and are meant to be shown to users verbatim.
// Bearer tokens carry only the user ID; the role always comes from the
// server's user table.
package devserver
