package wallet

import (
	"time"

	"github.com/wanderplan/wanderplan/internal/user"
)

// Balance is the spendable amount of the user's wallet in minor units.
type Balance struct {
	Balance   int64     `json:"balance"`
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PaymentRequest pays for a plan or service from the wallet.
type PaymentRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
	PlanID      string `json:"planId,omitempty"`
	// IdempotencyKey is sent as a header. A fresh key is generated when empty.
	IdempotencyKey string `json:"-"`
}

// TopUpRequest credits the wallet.
type TopUpRequest struct {
	Amount         int64  `json:"amount"`
	Method         string `json:"method,omitempty"`
	IdempotencyKey string `json:"-"`
}

// PaymentReceipt acknowledges a pay or top-up operation.
type PaymentReceipt struct {
	TransactionID string `json:"transactionId"`
	Amount        int64  `json:"amount"`
	Balance       int64  `json:"balance"`
	Status        string `json:"status"`
}

// Transaction is one wallet movement. Amount is negative for debits.
type Transaction struct {
	ID          string    `json:"_id"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description,omitempty"`
	PlanID      string    `json:"planId,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PremiumResult is returned by a premium upgrade.
type PremiumResult struct {
	User        user.User   `json:"user"`
	Transaction Transaction `json:"transaction"`
}
