package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestInMemoryLedger_PostMaintainsBalance(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.EnsureAccount(ctx, "wallet:a"); err != nil {
		t.Fatalf("ensure account: %v", err)
	}

	top, err := l.Post(ctx, Posting{Account: "wallet:a", Kind: KindTopUp, ClientTxID: "t1", Amount: 10_000})
	if err != nil {
		t.Fatalf("top up failed: %v", err)
	}
	if top.Balance != 10_000 || top.Status != StatusCompleted {
		t.Fatalf("unexpected top up entry %+v", top)
	}

	pay, err := l.Post(ctx, Posting{Account: "wallet:a", Kind: KindPayment, ClientTxID: "p1", Amount: -1_500, PlanID: "plan-1"})
	if err != nil {
		t.Fatalf("payment failed: %v", err)
	}
	if pay.Balance != 8_500 {
		t.Fatalf("expected balance 8500, got %d", pay.Balance)
	}

	balance, err := l.Balance(ctx, "wallet:a")
	if err != nil || balance != 8_500 {
		t.Fatalf("balance = %d, %v", balance, err)
	}
}

func TestInMemoryLedger_DuplicateTransaction(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	SeedBalance(l, "wallet:a", 5_000)

	first, err := l.Post(ctx, Posting{Account: "wallet:a", Kind: KindPayment, ClientTxID: "dup", Amount: -500})
	if err != nil {
		t.Fatalf("initial payment failed: %v", err)
	}
	again, err := l.Post(ctx, Posting{Account: "wallet:a", Kind: KindPayment, ClientTxID: "dup", Amount: -500})
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("duplicate should return the original entry")
	}
	if balance, _ := l.Balance(ctx, "wallet:a"); balance != 4_500 {
		t.Fatalf("duplicate must not move money, balance=%d", balance)
	}
}

func TestInMemoryLedger_Rejections(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")

	if _, err := l.Post(ctx, Posting{Account: "wallet:a", Kind: KindPayment, Amount: -1}); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if _, err := l.Post(ctx, Posting{Account: "wallet:a", Kind: KindTopUp}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := l.Post(ctx, Posting{Account: "wallet:missing", Kind: KindTopUp, Amount: 1}); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("expected unknown account, got %v", err)
	}
	if _, err := l.Balance(ctx, "wallet:missing"); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("expected unknown account, got %v", err)
	}
}

func TestInMemoryLedger_ConcurrentPayments(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	SeedBalance(l, "wallet:a", 3_000)

	const workers = 10
	const amount = int64(500)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.Post(ctx, Posting{Account: "wallet:a", Kind: KindPayment, ClientTxID: fmt.Sprintf("tx-%d", i), Amount: -amount})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else if !errors.Is(err, ErrInsufficientFunds) {
				t.Errorf("payment %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if accepted != 6 {
		t.Fatalf("expected 6 accepted payments, got %d", accepted)
	}
	if balance, _ := l.Balance(ctx, "wallet:a"); balance != 0 {
		t.Fatalf("ledger overdrawn or unbalanced, balance=%d", balance)
	}
}

func TestInMemoryLedger_HistoryNewestFirst(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	for i := 1; i <= 5; i++ {
		if _, err := l.Post(ctx, Posting{Account: "wallet:a", Kind: KindTopUp, Amount: int64(i)}); err != nil {
			t.Fatalf("post %d: %v", i, err)
		}
	}

	page, total, err := l.History(ctx, "wallet:a", 1, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if total != 5 || len(page) != 2 {
		t.Fatalf("total=%d len=%d", total, len(page))
	}
	if page[0].Amount != 4 || page[1].Amount != 3 {
		t.Fatalf("unexpected order %d,%d", page[0].Amount, page[1].Amount)
	}

	tail, _, _ := l.History(ctx, "wallet:a", 10, 2)
	if len(tail) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(tail))
	}
}
