package infra

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/wanderplan/wanderplan/internal/config"
	"github.com/wanderplan/wanderplan/internal/credentials"
)

func TestNewCredentialStoreRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store, closeFn, err := NewCredentialStore(ctx, config.Config{
		CredentialBackend: config.BackendRedis,
		CredentialProfile: "alice",
		RedisURL:          "redis://" + mr.Addr(),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer closeFn()

	if err := store.Set(ctx, credentials.KeyAccessToken, "tok"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, ok, err := store.Get(ctx, credentials.KeyAccessToken); err != nil || !ok || got != "tok" {
		t.Fatalf("expected tok, got %q ok=%v err=%v", got, ok, err)
	}
}

func TestNewCredentialStoreMemoryAndUnknown(t *testing.T) {
	ctx := context.Background()
	if _, closeFn, err := NewCredentialStore(ctx, config.Config{CredentialBackend: config.BackendMemory}); err != nil {
		t.Fatalf("memory store: %v", err)
	} else {
		closeFn()
	}
	if _, _, err := NewCredentialStore(ctx, config.Config{CredentialBackend: "tape"}); err == nil {
		t.Fatal("expected unknown backend error")
	}
}

func TestNewRedisClientRequiresURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty url")
	}
}
