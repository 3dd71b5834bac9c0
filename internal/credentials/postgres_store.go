package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `CREATE TABLE IF NOT EXISTS client_credentials (
    profile    TEXT NOT NULL,
    key        TEXT NOT NULL,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (profile, key)
)`

// PostgresStore keeps credentials in a PostgreSQL table keyed by profile.
type PostgresStore struct {
	db      *pgxpool.Pool
	profile string
}

// NewPostgresStore builds a Postgres-backed store for the given profile.
func NewPostgresStore(db *pgxpool.Pool, profile string) *PostgresStore {
	return &PostgresStore{db: db, profile: profile}
}

// EnsureSchema creates the credentials table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create client_credentials: %w", err)
	}
	return nil
}

// Get reads a credential; a missing row is reported as absent.
func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ValidateKey(key); err != nil {
		return "", false, err
	}
	var value string
	err := s.db.QueryRow(ctx, `SELECT value FROM client_credentials WHERE profile = $1 AND key = $2`, s.profile, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts a credential.
func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `INSERT INTO client_credentials (profile, key, value, updated_at)
        VALUES ($1, $2, $3, now())
        ON CONFLICT (profile, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		s.profile, key, value)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Remove deletes a credential. Removing a missing key succeeds.
func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM client_credentials WHERE profile = $1 AND key = $2`, s.profile, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
