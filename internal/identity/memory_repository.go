package identity

import (
	"context"
	"strings"
	"sync"
)

// Repository persists accounts.
type Repository interface {
	Create(ctx context.Context, account Account) error
	FindByID(ctx context.Context, id string) (Account, error)
	// FindByLogin matches the username or the email, case-insensitively.
	FindByLogin(ctx context.Context, login string) (Account, error)
	Update(ctx context.Context, account Account) error
}

type memoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryRepository builds an in-memory account store.
func NewMemoryRepository() Repository {
	return &memoryRepository{accounts: make(map[string]Account)}
}

func (r *memoryRepository) Create(_ context.Context, account Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if sameLogin(existing, account.Email) || sameLogin(existing, account.Username) {
			return ErrAccountExists
		}
	}
	r.accounts[account.ID] = account.clone()
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account.clone(), nil
}

func (r *memoryRepository) FindByLogin(_ context.Context, login string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, account := range r.accounts {
		if sameLogin(account, login) {
			return account.clone(), nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (r *memoryRepository) Update(_ context.Context, account Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; !ok {
		return ErrAccountNotFound
	}
	r.accounts[account.ID] = account.clone()
	return nil
}

func sameLogin(a Account, login string) bool {
	login = strings.TrimSpace(login)
	if login == "" {
		return false
	}
	return strings.EqualFold(a.Username, login) || strings.EqualFold(a.Email, login)
}
