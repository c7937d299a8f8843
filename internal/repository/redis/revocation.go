package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"
)

const defaultRevocationPrefix = "auth:revoked"

// RevocationRepository manages the session-token denylist backed by Redis.
// Keys are token digests; entries disappear on their own once the revoked
// token would have expired anyway.
type RevocationRepository struct {
	client *red.Client
	prefix string
}

// NewRevocationRepository wires a Redis client into a revocation repository.
func NewRevocationRepository(client *red.Client, keyPrefix string) *RevocationRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultRevocationPrefix
	}

	return &RevocationRepository{client: client, prefix: prefix}
}

// MarkRevoked stores the token digest with the reason and a TTL covering the
// token's remaining validity window.
func (r *RevocationRepository) MarkRevoked(ctx context.Context, digest string, reason string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	key := r.key(digest)
	if key == "" {
		return errors.New("token digest must not be empty")
	}

	if err := r.client.Set(ctx, key, reason, ttl).Err(); err != nil {
		return fmt.Errorf("redis set revoked token: %w", err)
	}

	return nil
}

// IsRevoked reports whether a revocation entry exists for the digest.
func (r *RevocationRepository) IsRevoked(ctx context.Context, digest string) (bool, error) {
	key := r.key(digest)
	if key == "" {
		return false, errors.New("token digest must not be empty")
	}

	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis check revoked token: %w", err)
	}

	return count == 1, nil
}

func (r *RevocationRepository) key(digest string) string {
	trimmed := strings.TrimSpace(digest)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", r.prefix, trimmed)
}
