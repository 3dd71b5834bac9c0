package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInsufficientFunds occurs when a debit exceeds the account balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateTransaction indicates the client transaction identifier was
	// already posted to the account. The original entry is returned with it.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrInvalidAmount rejects zero postings.
	ErrInvalidAmount = errors.New("amount must be non-zero")

	// ErrUnknownAccount is returned for accounts never passed to EnsureAccount.
	ErrUnknownAccount = errors.New("unknown account")
)

// Posting kinds.
const (
	KindTopUp   = "top_up"
	KindPayment = "payment"
	KindPremium = "premium"
)

// StatusCompleted marks a settled entry. Every posting settles immediately.
const StatusCompleted = "completed"

// Posting is a request to move money in or out of one wallet account.
// Positive amounts credit, negative amounts debit.
type Posting struct {
	Account     string
	Kind        string
	ClientTxID  string
	Amount      int64
	Description string
	PlanID      string
}

// Entry is a recorded posting together with the resulting balance.
type Entry struct {
	ID          string
	Account     string
	Kind        string
	ClientTxID  string
	Amount      int64
	Balance     int64
	Description string
	PlanID      string
	Status      string
	CreatedAt   time.Time
}

// Ledger defines the contract implemented by ledger backends.
type Ledger interface {
	EnsureAccount(ctx context.Context, code string) error
	Balance(ctx context.Context, code string) (int64, error)
	Post(ctx context.Context, p Posting) (Entry, error)
	// History returns entries newest first, plus the total entry count.
	History(ctx context.Context, code string, offset, limit int) ([]Entry, int, error)
}

// AccountCode names the wallet account of a user.
func AccountCode(userID string) string {
	return "wallet:" + userID
}
