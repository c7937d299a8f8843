package port

import (
	"context"
	"time"
)

// RevocationStore persists the session-token denylist. Keys are token digests;
// entries self-destruct via store TTL once the revoked token would have
// expired naturally anyway.
type RevocationStore interface {
	MarkRevoked(ctx context.Context, digest string, reason string, ttl time.Duration) error
	IsRevoked(ctx context.Context, digest string) (bool, error)
}
