package infra

import (
	"context"
	"fmt"

	"github.com/wanderplan/wanderplan/internal/config"
	"github.com/wanderplan/wanderplan/internal/credentials"
)

// NewCredentialStore opens the backend selected by cfg.CredentialBackend.
// The returned close function releases any connection the store holds.
func NewCredentialStore(ctx context.Context, cfg config.Config) (credentials.Store, func(), error) {
	switch cfg.CredentialBackend {
	case config.BackendMemory, "":
		return credentials.NewMemoryStore(), func() {}, nil
	case config.BackendRedis:
		client, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return credentials.NewRedisStore(client, cfg.CredentialProfile), func() { _ = client.Close() }, nil
	case config.BackendPostgres:
		pool, err := NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := credentials.NewPostgresStore(pool, cfg.CredentialProfile)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown credential backend %q", cfg.CredentialBackend)
	}
}
