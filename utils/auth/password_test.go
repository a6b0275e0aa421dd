package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("unexpected hash %q", hash)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("bcrypt.Cost: %v", err)
	}
	if cost != DefaultCost {
		t.Errorf("cost = %d, want %d", cost, DefaultCost)
	}

	if err := VerifyPassword(hash, "s3cret"); err != nil {
		t.Errorf("VerifyPassword(correct) = %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("VerifyPassword(wrong) = %v, want ErrPasswordMismatch", err)
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	err := VerifyPassword("not-a-bcrypt-hash", "s3cret")
	if err == nil || errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("expected a malformed hash error, got %v", err)
	}
}
