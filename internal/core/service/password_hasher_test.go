package service

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/kalado/authentication/internal/core/domain"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("pw1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "pw1" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !h.Verify("pw1", hash) {
		t.Fatalf("expected match")
	}
	if h.Verify("pw2", hash) {
		t.Fatalf("expected mismatch")
	}
	if h.Verify("pw1", "not-a-bcrypt-hash") {
		t.Fatalf("malformed hash must not verify")
	}

	again, _ := h.Hash("pw1")
	if again == hash {
		t.Fatalf("hashes must be salted")
	}
}

func TestBcryptHasher_TooLong(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	if _, err := h.Hash(strings.Repeat("a", 73)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewBcryptHasher_DefaultCost(t *testing.T) {
	if got := NewBcryptHasher(0).cost; got != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", got)
	}
	if got := NewBcryptHasher(bcrypt.MaxCost + 1).cost; got != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", got)
	}
}
