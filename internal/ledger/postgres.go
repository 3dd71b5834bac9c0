package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ledger_accounts (
        code       TEXT PRIMARY KEY,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
        id           UUID PRIMARY KEY,
        account_code TEXT NOT NULL REFERENCES ledger_accounts (code),
        kind         TEXT NOT NULL,
        client_tx_id TEXT NOT NULL DEFAULT '',
        amount       BIGINT NOT NULL,
        balance      BIGINT NOT NULL,
        description  TEXT NOT NULL DEFAULT '',
        plan_id      TEXT NOT NULL DEFAULT '',
        status       TEXT NOT NULL,
        created_at   TIMESTAMPTZ NOT NULL
    )`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ledger_entries_client_tx
        ON ledger_entries (account_code, kind, client_tx_id) WHERE client_tx_id <> ''`,
	`CREATE INDEX IF NOT EXISTS ledger_entries_account_created
        ON ledger_entries (account_code, created_at DESC)`,
}

const entryColumns = `id, account_code, kind, client_tx_id, amount, balance, description, plan_id, status, created_at`

// PostgresLedger persists wallet entries in PostgreSQL. An account's
// balance is the sum of its entries.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// EnsureSchema creates the ledger tables when they do not exist yet.
func (l *PostgresLedger) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := l.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ledger schema: %w", err)
		}
	}
	return nil
}

// EnsureAccount guarantees an account exists for the provided code.
func (l *PostgresLedger) EnsureAccount(ctx context.Context, code string) error {
	_, err := l.db.Exec(ctx, `INSERT INTO ledger_accounts (code) VALUES ($1)
        ON CONFLICT (code) DO NOTHING`, code)
	return err
}

// Balance returns the summed balance for the specified account code.
func (l *PostgresLedger) Balance(ctx context.Context, code string) (int64, error) {
	var exists bool
	if err := l.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM ledger_accounts WHERE code = $1)`, code).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrUnknownAccount
	}
	var balance int64
	if err := l.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE account_code = $1`, code).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// Post records a posting. The account row is locked for the duration of
// the transaction so concurrent postings see each other's balance.
func (l *PostgresLedger) Post(ctx context.Context, p Posting) (Entry, error) {
	if p.Amount == 0 {
		return Entry{}, ErrInvalidAmount
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var code string
	if err := tx.QueryRow(ctx, `SELECT code FROM ledger_accounts WHERE code = $1 FOR UPDATE`, p.Account).Scan(&code); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrUnknownAccount
		}
		return Entry{}, err
	}

	if p.ClientTxID != "" {
		row := tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM ledger_entries
            WHERE account_code = $1 AND kind = $2 AND client_tx_id = $3`, p.Account, p.Kind, p.ClientTxID)
		existing, err := scanEntry(row)
		if err == nil {
			return existing, ErrDuplicateTransaction
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, err
		}
	}

	balance, err := balanceForAccount(ctx, tx, p.Account)
	if err != nil {
		return Entry{}, err
	}
	if balance+p.Amount < 0 {
		return Entry{}, ErrInsufficientFunds
	}

	id := uuid.New()
	entry := Entry{
		ID:          id.String(),
		Account:     p.Account,
		Kind:        p.Kind,
		ClientTxID:  p.ClientTxID,
		Amount:      p.Amount,
		Balance:     balance + p.Amount,
		Description: p.Description,
		PlanID:      p.PlanID,
		Status:      StatusCompleted,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := tx.Exec(ctx, `INSERT INTO ledger_entries (`+entryColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, entry.Account, entry.Kind, entry.ClientTxID, entry.Amount, entry.Balance,
		entry.Description, entry.PlanID, entry.Status, entry.CreatedAt); err != nil {
		return Entry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// History returns entries newest first, plus the total entry count.
func (l *PostgresLedger) History(ctx context.Context, code string, offset, limit int) ([]Entry, int, error) {
	if _, err := l.Balance(ctx, code); err != nil {
		return nil, 0, err
	}
	var total int
	if err := l.db.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries WHERE account_code = $1`, code).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := l.db.Query(ctx, `SELECT `+entryColumns+` FROM ledger_entries
        WHERE account_code = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, code, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e  Entry
		id uuid.UUID
	)
	if err := row.Scan(&id, &e.Account, &e.Kind, &e.ClientTxID, &e.Amount, &e.Balance,
		&e.Description, &e.PlanID, &e.Status, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	e.ID = id.String()
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func balanceForAccount(ctx context.Context, tx pgx.Tx, code string) (int64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE account_code = $1`
	var balance int64
	if err := tx.QueryRow(ctx, query, code).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}
