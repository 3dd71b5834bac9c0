// Package wallet reads the wallet balance and history and sends payments.
package wallet

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/wanderplan/wanderplan/internal/gateway"
	"github.com/wanderplan/wanderplan/internal/result"
)

const (
	EndpointBalance      = "/wallet/balance"
	EndpointPay          = "/wallet/pay"
	EndpointTopUp        = "/wallet/top-up"
	EndpointTransactions = "/wallet/transactions"
	EndpointPremium      = "/wallet/premium"

	// IdempotencyHeader carries the per-operation key of pay and top-up.
	IdempotencyHeader = "Idempotency-Key"

	msgInvalidAmount = "Amount must be greater than 0"
)

// Service exposes the wallet endpoints.
type Service struct {
	api *gateway.Client
}

// NewService builds a wallet service on top of the API gateway.
func NewService(api *gateway.Client) *Service {
	return &Service{api: api}
}

// Balance returns the current wallet balance.
func (s *Service) Balance(ctx context.Context) result.Envelope[Balance] {
	env := s.api.Get(ctx, EndpointBalance, nil)
	return result.Decode[Balance](env, EndpointBalance, "Failed to fetch wallet balance")
}

// Pay debits the wallet. Non-positive amounts are rejected locally.
func (s *Service) Pay(ctx context.Context, req PaymentRequest) result.Envelope[PaymentReceipt] {
	if req.Amount <= 0 {
		return result.Invalid[PaymentReceipt](msgInvalidAmount, EndpointPay)
	}
	return s.move(ctx, EndpointPay, req, req.IdempotencyKey, "Payment failed")
}

// TopUp credits the wallet. Non-positive amounts are rejected locally.
func (s *Service) TopUp(ctx context.Context, req TopUpRequest) result.Envelope[PaymentReceipt] {
	if req.Amount <= 0 {
		return result.Invalid[PaymentReceipt](msgInvalidAmount, EndpointTopUp)
	}
	return s.move(ctx, EndpointTopUp, req, req.IdempotencyKey, "Top up failed")
}

func (s *Service) move(ctx context.Context, endpoint string, body any, key, fallback string) result.Envelope[PaymentReceipt] {
	if key == "" {
		key = uuid.NewString()
	}
	env := s.api.Request(ctx, endpoint, gateway.Options{
		Method:  http.MethodPost,
		Body:    body,
		Headers: map[string]string{IdempotencyHeader: key},
	})
	return result.Decode[PaymentReceipt](env, endpoint, fallback)
}

// Transactions returns one page of wallet history, newest first.
func (s *Service) Transactions(ctx context.Context, q result.PageQuery) result.Envelope[result.Page[Transaction]] {
	env := s.api.Get(ctx, EndpointTransactions, q.Values())
	page := result.Decode[result.Page[Transaction]](env, EndpointTransactions, "Failed to fetch transactions")
	return result.Map(page, result.Page[Transaction].Normalized)
}

// PurchasePremium upgrades the account. The returned user should be
// handed to the session so the premium flag is visible locally.
func (s *Service) PurchasePremium(ctx context.Context) result.Envelope[PremiumResult] {
	env := s.api.Post(ctx, EndpointPremium, nil)
	return result.Decode[PremiumResult](env, EndpointPremium, "Failed to purchase premium")
}
