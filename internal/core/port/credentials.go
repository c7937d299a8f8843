package port

import "context"

// CredentialVerifier checks login credentials and resolves the token subject.
// Credential storage lives outside this service; the default wiring verifies a
// single configured service account.
type CredentialVerifier interface {
	Verify(ctx context.Context, account, secret string) (subject string, err error)
}
