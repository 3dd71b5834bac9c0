package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inMemoryLedger struct {
	mu       sync.RWMutex
	balances map[string]int64
	entries  map[string][]Entry
	byClient map[string]Entry
}

// NewInMemory creates a concurrency-safe in-memory ledger.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		balances: make(map[string]int64),
		entries:  make(map[string][]Entry),
		byClient: make(map[string]Entry),
	}
}

func (l *inMemoryLedger) EnsureAccount(_ context.Context, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.balances[code]; !exists {
		l.balances[code] = 0
	}
	return nil
}

func (l *inMemoryLedger) Balance(_ context.Context, code string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, exists := l.balances[code]
	if !exists {
		return 0, ErrUnknownAccount
	}
	return balance, nil
}

func (l *inMemoryLedger) Post(_ context.Context, p Posting) (Entry, error) {
	if p.Amount == 0 {
		return Entry{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	clientKey := p.Account + "|" + p.Kind + "|" + p.ClientTxID
	if p.ClientTxID != "" {
		if existing, ok := l.byClient[clientKey]; ok {
			return existing, ErrDuplicateTransaction
		}
	}

	balance, ok := l.balances[p.Account]
	if !ok {
		return Entry{}, ErrUnknownAccount
	}
	if balance+p.Amount < 0 {
		return Entry{}, ErrInsufficientFunds
	}
	balance += p.Amount
	l.balances[p.Account] = balance

	entry := Entry{
		ID:          uuid.NewString(),
		Account:     p.Account,
		Kind:        p.Kind,
		ClientTxID:  p.ClientTxID,
		Amount:      p.Amount,
		Balance:     balance,
		Description: p.Description,
		PlanID:      p.PlanID,
		Status:      StatusCompleted,
		CreatedAt:   time.Now().UTC(),
	}
	l.entries[p.Account] = append(l.entries[p.Account], entry)
	if p.ClientTxID != "" {
		l.byClient[clientKey] = entry
	}
	return entry, nil
}

func (l *inMemoryLedger) History(_ context.Context, code string, offset, limit int) ([]Entry, int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, ok := l.balances[code]; !ok {
		return nil, 0, ErrUnknownAccount
	}
	all := l.entries[code]
	total := len(all)
	out := []Entry{}
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, total, nil
}
