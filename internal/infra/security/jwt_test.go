package security

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenSigner_SignAndParse(t *testing.T) {
	signer, err := NewTokenSigner("test-secret-0123456789", "talks-qa")
	if err != nil {
		t.Fatalf("NewTokenSigner returned error: %v", err)
	}

	token, claims, err := signer.Sign("svc-reporting", 15*time.Minute)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}
	if claims.ID == "" {
		t.Fatalf("expected a unique token id")
	}

	parsed, err := signer.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if parsed.Subject != "svc-reporting" {
		t.Fatalf("unexpected subject %q", parsed.Subject)
	}
	if parsed.Issuer != "talks-qa" {
		t.Fatalf("unexpected issuer %q", parsed.Issuer)
	}
	if got := parsed.ExpiresAt.Sub(parsed.IssuedAt.Time); got != 15*time.Minute {
		t.Fatalf("expected 15m validity, got %v", got)
	}
}

func TestTokenSigner_ParseRejectsExpired(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	signer, err := NewTokenSigner("test-secret-0123456789", "talks-qa")
	if err != nil {
		t.Fatalf("NewTokenSigner returned error: %v", err)
	}
	signer.WithClock(func() time.Time { return current })

	token, _, err := signer.Sign("svc-reporting", 10*time.Minute)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	current = current.Add(11 * time.Minute)

	if _, err := signer.Parse(token); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected jwt.ErrTokenExpired, got %v", err)
	}
}

func TestTokenSigner_ParseRejectsWrongSecret(t *testing.T) {
	signer, err := NewTokenSigner("test-secret-0123456789", "talks-qa")
	if err != nil {
		t.Fatalf("NewTokenSigner returned error: %v", err)
	}
	other, err := NewTokenSigner("different-secret-9876543210", "talks-qa")
	if err != nil {
		t.Fatalf("NewTokenSigner returned error: %v", err)
	}

	token, _, err := signer.Sign("svc-reporting", 10*time.Minute)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	if _, err := other.Parse(token); err == nil {
		t.Fatalf("expected signature mismatch to fail parsing")
	}
}

func TestTokenSigner_ExpiryOfExpiredToken(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	signer, err := NewTokenSigner("test-secret-0123456789", "talks-qa")
	if err != nil {
		t.Fatalf("NewTokenSigner returned error: %v", err)
	}
	signer.WithClock(func() time.Time { return current })

	token, _, err := signer.Sign("svc-reporting", 10*time.Minute)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	current = current.Add(time.Hour)

	// Expiry extraction must work on already-expired tokens so revocation
	// entries can still be sized.
	expiry, err := signer.ExpiryOf(token)
	if err != nil {
		t.Fatalf("ExpiryOf returned error: %v", err)
	}
	want := time.Date(2025, 6, 1, 12, 10, 0, 0, time.UTC)
	if !expiry.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, expiry)
	}
}

func TestNewTokenSigner_RequiresSecret(t *testing.T) {
	if _, err := NewTokenSigner("   ", "talks-qa"); err == nil {
		t.Fatalf("expected error for blank secret")
	}
}

func TestHashToken_StableDigest(t *testing.T) {
	first := HashToken("header.payload.signature")
	second := HashToken("header.payload.signature")
	other := HashToken("header.payload.other")

	if first != second {
		t.Fatalf("expected stable digest")
	}
	if first == other {
		t.Fatalf("expected distinct tokens to produce distinct digests")
	}
	if len(first) != 64 {
		t.Fatalf("expected hex-encoded sha256, got %d characters", len(first))
	}
}
