// Package funding simulates the external processors that authorize wallet
// top-ups in the stub backend.
package funding

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Top-up methods accepted by the stub.
const (
	MethodCard = "card"
	MethodBank = "bank_transfer"
	MethodMoMo = "momo"
)

// ErrUnsupportedMethod is returned for methods no processor handles.
var ErrUnsupportedMethod = errors.New("unsupported top-up method")

// Decision is a processor's answer to an authorization request.
type Decision struct {
	Reference string
	Approved  bool
	Reason    string
}

// TopUp is a request to pull Amount into a wallet through Method.
type TopUp struct {
	UserID string
	Method string
	Amount int64
}

// Acquirer authorizes top-ups.
type Acquirer interface {
	Authorize(ctx context.Context, in TopUp) (Decision, error)
}

// StaticAcquirer approves every top-up up to Limit for a supported method.
// A zero Limit means no limit.
type StaticAcquirer struct {
	Limit int64
}

// NormalizeMethod lower-cases m and defaults it to card.
func NormalizeMethod(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if m == "" {
		return MethodCard
	}
	return m
}

// Authorize returns an approval with a synthetic reference, or a decline
// when the amount is above the limit.
func (a StaticAcquirer) Authorize(_ context.Context, in TopUp) (Decision, error) {
	switch NormalizeMethod(in.Method) {
	case MethodCard, MethodBank, MethodMoMo:
	default:
		return Decision{}, ErrUnsupportedMethod
	}
	ref := uuid.NewString()
	if a.Limit > 0 && in.Amount > a.Limit {
		return Decision{Reference: ref, Reason: "amount exceeds the per-transaction limit"}, nil
	}
	return Decision{Reference: ref, Approved: true}, nil
}
