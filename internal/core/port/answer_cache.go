package port

import (
	"context"
	"time"

	"github.com/rasifabdulrazak/talks-qa-llm/internal/core/domain"
)

// AnswerCache maps a document/question fingerprint to a previously computed
// answer. Entries are evicted by store-native TTL only.
type AnswerCache interface {
	// Get returns the cached answer and whether the fingerprint was present.
	Get(ctx context.Context, fp domain.Fingerprint) (string, bool, error)
	// Set writes an answer with the supplied TTL, overwriting any prior entry.
	Set(ctx context.Context, fp domain.Fingerprint, answer string, ttl time.Duration) error
}
