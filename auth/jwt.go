package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	nanoid "github.com/matoous/go-nanoid/v2"
)

// Default token lifetimes.
const (
	DefaultAccessTokenTTL   = 15 * time.Minute
	DefaultRefreshTokenTTL  = 7 * 24 * time.Hour
	DefaultEvidenceTokenTTL = 10 * time.Minute
)

const opaqueAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// JWTConfig holds configuration for token signing and validation.
type JWTConfig struct {
	// Secret is the HMAC signing key (must be at least 32 bytes).
	Secret []byte

	// Issuer is stamped on every token and checked on validation when set.
	Issuer string

	// AccessTokenTTL defaults to DefaultAccessTokenTTL.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL defaults to DefaultRefreshTokenTTL.
	RefreshTokenTTL time.Duration

	// EvidenceTokenTTL defaults to DefaultEvidenceTokenTTL.
	EvidenceTokenTTL time.Duration

	// Now overrides the clock. Tests only.
	Now func() time.Time
}

func (c JWTConfig) accessTTL() time.Duration {
	if c.AccessTokenTTL == 0 {
		return DefaultAccessTokenTTL
	}
	return c.AccessTokenTTL
}

// RefreshTTL returns the effective refresh token lifetime.
func (c JWTConfig) RefreshTTL() time.Duration {
	if c.RefreshTokenTTL == 0 {
		return DefaultRefreshTokenTTL
	}
	return c.RefreshTokenTTL
}

// EvidenceTTL returns the effective evidence link lifetime.
func (c JWTConfig) EvidenceTTL() time.Duration {
	if c.EvidenceTokenTTL == 0 {
		return DefaultEvidenceTokenTTL
	}
	return c.EvidenceTokenTTL
}

func (c JWTConfig) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// BaseClaims carries the registered claims. Embed it in token-specific claims.
type BaseClaims struct {
	jwt.RegisteredClaims
}

// TokenPair is what the token endpoint hands out after a successful grant.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds until the access token expires
}

// IssueAccessToken mints a bearer token for a user. The subject is the user
// ID; the token carries no role, so the backend stays the only role authority.
func IssueAccessToken(cfg JWTConfig, userID string) (string, error) {
	return sign(cfg, cfg.accessTTL(), func(base BaseClaims) BaseClaims {
		base.Subject = userID
		return base
	})
}

// ValidateAccessToken parses a bearer token and returns its claims.
func ValidateAccessToken(cfg JWTConfig, tokenString string) (*BaseClaims, error) {
	claims := &BaseClaims{}
	if err := parse(cfg, tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueTokenPair mints an access token and an opaque refresh token for a user.
// The returned hash is what the caller stores to recognise the refresh token.
func IssueTokenPair(cfg JWTConfig, userID string) (*TokenPair, string, error) {
	access, err := IssueAccessToken(cfg, userID)
	if err != nil {
		return nil, "", err
	}
	refresh, hash, err := GenerateRefreshToken()
	if err != nil {
		return nil, "", err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(cfg.accessTTL().Seconds()),
	}, hash, nil
}

// GenerateRefreshToken creates a new opaque refresh token.
// Returns the token (to give to client) and its hash (for storage).
func GenerateRefreshToken() (token, hash string, err error) {
	token, err = nanoid.Generate(opaqueAlphabet, 64)
	if err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}
	return token, HashToken(token), nil
}

func sign[T jwt.Claims](cfg JWTConfig, ttl time.Duration, builder func(BaseClaims) T) (string, error) {
	if len(cfg.Secret) < 32 {
		return "", ErrSecretTooShort
	}

	tokenID, err := nanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}

	now := cfg.now()
	base := BaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        tokenID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, builder(base))
	return token.SignedString(cfg.Secret)
}

func parse(cfg JWTConfig, tokenString string, claims jwt.Claims) error {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(cfg.Now))
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return cfg.Secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
