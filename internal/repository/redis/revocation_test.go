package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestRevocationRepository_MarkAndCheck(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRevocationRepository(client, "auth:revoked")

	ctx := context.Background()
	ttl := 2 * time.Minute

	if err := repo.MarkRevoked(ctx, "digest-abc", "user_logout", ttl); err != nil {
		t.Fatalf("MarkRevoked returned error: %v", err)
	}

	revoked, err := repo.IsRevoked(ctx, "digest-abc")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if !revoked {
		t.Fatalf("expected token digest to be marked revoked")
	}

	remaining := server.TTL("auth:revoked:digest-abc")
	if remaining <= 0 || remaining > ttl {
		t.Fatalf("expected ttl within (0, %v], got %v", ttl, remaining)
	}
}

func TestRevocationRepository_ExpiresNaturally(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRevocationRepository(client, "auth:revoked")

	ctx := context.Background()
	if err := repo.MarkRevoked(ctx, "digest-abc", "user_logout", time.Minute); err != nil {
		t.Fatalf("MarkRevoked returned error: %v", err)
	}

	server.FastForward(2 * time.Minute)

	revoked, err := repo.IsRevoked(ctx, "digest-abc")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if revoked {
		t.Fatalf("expected entry to be purged after ttl expiry")
	}
}

func TestRevocationRepository_IsRevokedMiss(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRevocationRepository(client, "auth:revoked")

	revoked, err := repo.IsRevoked(context.Background(), "missing")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if revoked {
		t.Fatalf("expected revoked to be false")
	}
}

func TestRevocationRepository_InvalidInput(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRevocationRepository(client, "auth:revoked")

	if err := repo.MarkRevoked(context.Background(), "", "reason", time.Minute); err == nil {
		t.Fatalf("expected error for empty digest")
	}
	if err := repo.MarkRevoked(context.Background(), "digest", "reason", 0); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}

	if _, err := repo.IsRevoked(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty digest in IsRevoked")
	}
}
