package auth

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// evidenceAudience separates evidence tokens from bearer tokens signed with
// the same secret.
const evidenceAudience = "evidence"

// EvidenceClaims grant read access to one stored audit image.
type EvidenceClaims struct {
	BaseClaims
	Object string `json:"obj"`
}

// NewObjectKey returns a random key for a stored audit image.
func NewObjectKey() (string, error) {
	key, err := nanoid.Generate(opaqueAlphabet, 24)
	if err != nil {
		return "", fmt.Errorf("generate object key: %w", err)
	}
	return key, nil
}

// IssueEvidenceToken signs a short-lived token naming a stored image.
func IssueEvidenceToken(cfg JWTConfig, objectKey string) (string, error) {
	if objectKey == "" {
		return "", fmt.Errorf("issue evidence token: empty object key")
	}
	return sign(cfg, cfg.EvidenceTTL(), func(base BaseClaims) EvidenceClaims {
		base.Audience = []string{evidenceAudience}
		return EvidenceClaims{BaseClaims: base, Object: objectKey}
	})
}

// ParseEvidenceToken validates an evidence token and returns the object key.
// Expired tokens return ErrTokenExpired.
func ParseEvidenceToken(cfg JWTConfig, tokenString string) (string, error) {
	claims := &EvidenceClaims{}
	if err := parse(cfg, tokenString, claims); err != nil {
		return "", err
	}
	aud, err := claims.GetAudience()
	if err != nil || len(aud) != 1 || aud[0] != evidenceAudience || claims.Object == "" {
		return "", ErrInvalidToken
	}
	return claims.Object, nil
}
