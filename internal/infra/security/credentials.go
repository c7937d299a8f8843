package security

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
)

// ErrInvalidCredentials indicates the supplied account or secret is wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ServiceAccountVerifier checks login credentials against the single service
// account configured for this deployment. User registration and credential
// storage are handled outside this service.
type ServiceAccountVerifier struct {
	account string
	secret  string
}

// NewServiceAccountVerifier constructs a verifier for the configured account.
func NewServiceAccountVerifier(account, secret string) (*ServiceAccountVerifier, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return nil, errors.New("service account is required")
	}
	if secret == "" {
		return nil, errors.New("service secret is required")
	}

	return &ServiceAccountVerifier{account: account, secret: secret}, nil
}

// Verify compares the supplied credentials in constant time and returns the
// token subject on success.
func (v *ServiceAccountVerifier) Verify(_ context.Context, account, secret string) (string, error) {
	accountOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(account)), []byte(v.account)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(secret), []byte(v.secret)) == 1
	if !accountOK || !secretOK {
		return "", ErrInvalidCredentials
	}

	return v.account, nil
}
