package redis

import (
	"context"
	"testing"
	"time"

	"github.com/rasifabdulrazak/talks-qa-llm/internal/core/domain"
)

func TestAnswerCacheRepository_SetAndGet(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewAnswerCacheRepository(client, "qa:answer")

	ctx := context.Background()
	fp := domain.NewFingerprint("The Eiffel Tower was completed in 1889.", "When was it built?")

	if err := repo.Set(ctx, fp, "It was completed in 1889.", time.Hour); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	answer, found, err := repo.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !found {
		t.Fatalf("expected cache hit")
	}
	if answer != "It was completed in 1889." {
		t.Fatalf("unexpected cached answer: %q", answer)
	}

	remaining := server.TTL("qa:answer:" + fp.String())
	if remaining <= 0 || remaining > time.Hour {
		t.Fatalf("expected ttl within (0, 1h], got %v", remaining)
	}
}

func TestAnswerCacheRepository_GetMiss(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewAnswerCacheRepository(client, "qa:answer")

	fp := domain.NewFingerprint("document", "question")

	answer, found, err := repo.Get(context.Background(), fp)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if found || answer != "" {
		t.Fatalf("expected miss, got %q", answer)
	}
}

func TestAnswerCacheRepository_OverwriteIsIdempotent(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewAnswerCacheRepository(client, "qa:answer")

	ctx := context.Background()
	fp := domain.NewFingerprint("document", "question")

	if err := repo.Set(ctx, fp, "first", time.Hour); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := repo.Set(ctx, fp, "second", time.Hour); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	answer, found, err := repo.Get(ctx, fp)
	if err != nil || !found {
		t.Fatalf("expected hit, err=%v", err)
	}
	if answer != "second" {
		t.Fatalf("expected last write to win, got %q", answer)
	}
}

func TestAnswerCacheRepository_ExpiresByTTL(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewAnswerCacheRepository(client, "qa:answer")

	ctx := context.Background()
	fp := domain.NewFingerprint("document", "question")

	if err := repo.Set(ctx, fp, "answer", time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	server.FastForward(2 * time.Minute)

	_, found, err := repo.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if found {
		t.Fatalf("expected entry to expire")
	}
}

func TestAnswerCacheRepository_InvalidInput(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewAnswerCacheRepository(client, "qa:answer")

	if err := repo.Set(context.Background(), domain.Fingerprint(""), "answer", time.Hour); err == nil {
		t.Fatalf("expected error for empty fingerprint")
	}
	if err := repo.Set(context.Background(), domain.Fingerprint("abc"), "answer", 0); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}
}
