package auth

import "errors"

// Authentication errors.
var (
	// ErrInvalidToken indicates the token is malformed or has an invalid signature.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates the token has expired.
	ErrTokenExpired = errors.New("token expired")

	// ErrSecretTooShort indicates the JWT secret is too short.
	ErrSecretTooShort = errors.New("JWT secret must be at least 32 bytes")

	// ErrInvalidIngestKey indicates the ingest key format is invalid.
	ErrInvalidIngestKey = errors.New("invalid ingest key format")

	// ErrBadCredentials indicates a password did not match.
	ErrBadCredentials = errors.New("invalid username or password")

	// ErrEmptyPassword rejects hashing an empty password.
	ErrEmptyPassword = errors.New("password must not be empty")
)
