package auth

import (
	"fmt"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Ingest keys authenticate the generation pipeline when it submits content.
const (
	IngestKeyPrefix  = "rdk_ingest_"
	ingestKeyLength  = 32
	ingestKeyDisplay = 15
)

// IngestKey is a freshly minted key. Secret is only available at creation.
type IngestKey struct {
	ID      string
	Secret  string
	Display string
	Hash    string
}

// GenerateIngestKey mints a new ingest key.
func GenerateIngestKey() (*IngestKey, error) {
	random, err := nanoid.Generate(opaqueAlphabet, ingestKeyLength)
	if err != nil {
		return nil, fmt.Errorf("generate ingest key: %w", err)
	}
	id, err := nanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate ingest key id: %w", err)
	}

	secret := IngestKeyPrefix + random
	return &IngestKey{
		ID:      "key_" + id,
		Secret:  secret,
		Display: DisplayIngestKey(secret),
		Hash:    HashToken(secret),
	}, nil
}

// CheckIngestKeyFormat rejects strings that cannot be an ingest key, so the
// caller can skip the lookup.
func CheckIngestKeyFormat(key string) error {
	if !strings.HasPrefix(key, IngestKeyPrefix) || len(key) != len(IngestKeyPrefix)+ingestKeyLength {
		return ErrInvalidIngestKey
	}
	return nil
}

// DisplayIngestKey shortens a key for logs.
func DisplayIngestKey(key string) string {
	if len(key) <= ingestKeyDisplay {
		return key
	}
	return key[:ingestKeyDisplay] + "..."
}
