package auth

import (
	"errors"
	"testing"
	"time"
)

func TestEvidenceToken(t *testing.T) {
	cfg := testConfig()
	key, err := NewObjectKey()
	if err != nil {
		t.Fatalf("NewObjectKey() error = %v", err)
	}

	token, err := IssueEvidenceToken(cfg, key)
	if err != nil {
		t.Fatalf("IssueEvidenceToken() error = %v", err)
	}

	got, err := ParseEvidenceToken(cfg, token)
	if err != nil {
		t.Fatalf("ParseEvidenceToken() error = %v", err)
	}
	if got != key {
		t.Errorf("object = %q, want %q", got, key)
	}

	t.Run("expired", func(t *testing.T) {
		late := cfg
		late.Now = func() time.Time { return time.Now().Add(DefaultEvidenceTokenTTL + time.Minute) }
		if _, err := ParseEvidenceToken(late, token); !errors.Is(err, ErrTokenExpired) {
			t.Errorf("error = %v, want ErrTokenExpired", err)
		}
	})

	t.Run("bearer token is not evidence", func(t *testing.T) {
		bearer, err := IssueAccessToken(cfg, "user-1")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ParseEvidenceToken(cfg, bearer); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("empty key", func(t *testing.T) {
		if _, err := IssueEvidenceToken(cfg, ""); err == nil {
			t.Error("expected error for empty object key")
		}
	})
}
