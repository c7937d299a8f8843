package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/rasifabdulrazak/talks-qa-llm/internal/core/domain"
)

const defaultAnswerCachePrefix = "qa:answer"

// AnswerCacheRepository stores computed answers keyed by content fingerprint.
// Eviction is store-native TTL only; there is no explicit invalidation.
type AnswerCacheRepository struct {
	client *red.Client
	prefix string
}

// NewAnswerCacheRepository wires a Redis client into an answer cache.
func NewAnswerCacheRepository(client *red.Client, keyPrefix string) *AnswerCacheRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultAnswerCachePrefix
	}

	return &AnswerCacheRepository{client: client, prefix: prefix}
}

// Get returns the cached answer for the fingerprint and whether it was present.
func (r *AnswerCacheRepository) Get(ctx context.Context, fp domain.Fingerprint) (string, bool, error) {
	key, err := r.key(fp)
	if err != nil {
		return "", false, err
	}

	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get answer: %w", err)
	}

	return value, true, nil
}

// Set writes the answer with the supplied TTL, overwriting any prior entry.
func (r *AnswerCacheRepository) Set(ctx context.Context, fp domain.Fingerprint, answer string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	key, err := r.key(fp)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, key, answer, ttl).Err(); err != nil {
		return fmt.Errorf("redis set answer: %w", err)
	}

	return nil
}

func (r *AnswerCacheRepository) key(fp domain.Fingerprint) (string, error) {
	if strings.TrimSpace(fp.String()) == "" {
		return "", errors.New("fingerprint must not be empty")
	}
	return fmt.Sprintf("%s:%s", r.prefix, fp), nil
}
