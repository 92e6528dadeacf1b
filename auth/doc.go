// Package auth mints and checks the credentials used by the development
// backend.
//
// Bearer tokens are HS256 JWTs whose subject is the user ID. They carry no
// role; the backend answers /me from its own user table.
//
//	cfg := auth.JWTConfig{Secret: secret, Issuer: "reviewdesk-devserver"}
//	pair, refreshHash, err := auth.IssueTokenPair(cfg, user.ID)
//	claims, err := auth.ValidateAccessToken(cfg, pair.AccessToken)
//
// Evidence tokens are short-lived JWTs naming one stored audit image; they
// back the signed image_url returned by the audit endpoints:
//
//	token, err := auth.IssueEvidenceToken(cfg, objectKey)
//	objectKey, err = auth.ParseEvidenceToken(cfg, token) // ErrTokenExpired once stale
//
// Passwords are stored as bcrypt hashes (HashPassword, CheckPassword).
// Refresh tokens and ingest keys are stored by their SHA-256 (HashToken).
package auth
