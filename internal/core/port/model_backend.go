package port

import (
	"context"

	"github.com/rasifabdulrazak/talks-qa-llm/internal/core/domain"
)

// ModelBackend abstracts a language-model provider able to answer a question
// against a prepared system prompt, either in one round trip or as an ordered
// fragment stream.
type ModelBackend interface {
	// AnswerBatch returns the full answer text in a single call.
	AnswerBatch(ctx context.Context, systemPrompt, question string) (string, error)
	// AnswerStream re-issues the request and yields fragments in generation
	// order; concatenating them reconstructs the batch answer.
	AnswerStream(ctx context.Context, systemPrompt, question string) (*domain.FragmentStream, error)
}
