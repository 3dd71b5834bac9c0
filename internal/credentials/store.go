// Package credentials persists the access token, refresh token and cached
// user record across process restarts.
package credentials

import (
	"context"
	"errors"
	"fmt"
)

// Keys understood by every Store.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// ErrUnknownKey is returned for keys outside the fixed credential set.
var ErrUnknownKey = errors.New("unknown credential key")

// Keys lists every credential key in a stable order.
func Keys() []string {
	return []string{KeyAccessToken, KeyRefreshToken, KeyUser}
}

// Reader is the read-only view the gateway consults on every request.
type Reader interface {
	// Get returns the stored value and whether it was present. An empty
	// store is not an error.
	Get(ctx context.Context, key string) (string, bool, error)
}

// Store is durable key-value persistence for credentials.
type Store interface {
	Reader
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// ValidateKey rejects keys outside the credential set.
func ValidateKey(key string) error {
	switch key {
	case KeyAccessToken, KeyRefreshToken, KeyUser:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}

// Clear removes every credential key, attempting all of them even when one
// fails.
func Clear(ctx context.Context, s Store) error {
	var errs []error
	for _, key := range Keys() {
		if err := s.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
