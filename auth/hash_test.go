package auth

import (
	"errors"
	"testing"
)

func TestHashToken(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		if HashToken("test-token-12345") != HashToken("test-token-12345") {
			t.Error("HashToken not deterministic")
		}
	})

	t.Run("different inputs different hashes", func(t *testing.T) {
		if HashToken("token-a") == HashToken("token-b") {
			t.Error("different tokens should have different hashes")
		}
	})

	t.Run("hash length", func(t *testing.T) {
		// SHA-256 produces 32 bytes = 64 hex characters
		if got := len(HashToken("test")); got != 64 {
			t.Errorf("hash length = %d, want 64", got)
		}
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal the password")
	}

	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Errorf("CheckPassword(correct) = %v", err)
	}
	if err := CheckPassword(hash, "battery staple"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("CheckPassword(wrong) = %v, want ErrBadCredentials", err)
	}
	if err := CheckPassword("not-a-bcrypt-hash", "x"); err == nil || errors.Is(err, ErrBadCredentials) {
		t.Errorf("CheckPassword(malformed hash) = %v, want a non-credential error", err)
	}

	if _, err := HashPassword(""); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("HashPassword(\"\") = %v, want ErrEmptyPassword", err)
	}
}
