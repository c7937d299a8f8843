package security

import (
	"context"
	"errors"
	"testing"
)

func TestServiceAccountVerifier_Verify(t *testing.T) {
	verifier, err := NewServiceAccountVerifier("svc-reporting", "s3cret")
	if err != nil {
		t.Fatalf("NewServiceAccountVerifier returned error: %v", err)
	}

	subject, err := verifier.Verify(context.Background(), "svc-reporting", "s3cret")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if subject != "svc-reporting" {
		t.Fatalf("unexpected subject %q", subject)
	}
}

func TestServiceAccountVerifier_RejectsWrongCredentials(t *testing.T) {
	verifier, err := NewServiceAccountVerifier("svc-reporting", "s3cret")
	if err != nil {
		t.Fatalf("NewServiceAccountVerifier returned error: %v", err)
	}

	cases := []struct {
		name    string
		account string
		secret  string
	}{
		{"wrong account", "svc-other", "s3cret"},
		{"wrong secret", "svc-reporting", "wrong"},
		{"both wrong", "svc-other", "wrong"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := verifier.Verify(context.Background(), tc.account, tc.secret); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestNewServiceAccountVerifier_RequiresConfiguration(t *testing.T) {
	if _, err := NewServiceAccountVerifier("", "s3cret"); err == nil {
		t.Fatalf("expected error for missing account")
	}
	if _, err := NewServiceAccountVerifier("svc-reporting", ""); err == nil {
		t.Fatalf("expected error for missing secret")
	}
}
