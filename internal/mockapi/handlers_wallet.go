package mockapi

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wanderplan/wanderplan/internal/funding"
	"github.com/wanderplan/wanderplan/internal/ledger"
	"github.com/wanderplan/wanderplan/internal/middleware"
	"github.com/wanderplan/wanderplan/internal/notification"
	"github.com/wanderplan/wanderplan/internal/result"
	"github.com/wanderplan/wanderplan/internal/wallet"
)

const (
	walletCurrency = "VND"
	// PremiumPrice is debited by /wallet/premium.
	PremiumPrice int64 = 99_000
)

func (h *handlers) walletAccount(c *fiber.Ctx) (string, error) {
	code := ledger.AccountCode(middleware.UserID(c))
	if err := h.ledger.EnsureAccount(c.UserContext(), code); err != nil {
		return "", err
	}
	return code, nil
}

func (h *handlers) balance(c *fiber.Ctx) error {
	code, err := h.walletAccount(c)
	if err != nil {
		return err
	}
	amount, err := h.ledger.Balance(c.UserContext(), code)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, wallet.Balance{Balance: amount, Currency: walletCurrency, UpdatedAt: time.Now().UTC()})
}

func (h *handlers) pay(c *fiber.Ctx) error {
	var req wallet.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Malformed request body")
	}
	if req.Amount <= 0 {
		return invalid("Amount must be greater than 0")
	}
	if req.PlanID != "" {
		if _, ok := h.catalog.plan(middleware.UserID(c), req.PlanID); !ok {
			return fiber.NewError(fiber.StatusNotFound, "Plan not found")
		}
	}
	return h.post(c, ledger.Posting{
		Kind:        ledger.KindPayment,
		Amount:      -req.Amount,
		Description: req.Description,
		PlanID:      req.PlanID,
	})
}

func (h *handlers) topUp(c *fiber.Ctx) error {
	var req wallet.TopUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Malformed request body")
	}
	if req.Amount <= 0 {
		return invalid("Amount must be greater than 0")
	}
	method := funding.NormalizeMethod(req.Method)
	decision, err := h.acquirer.Authorize(c.UserContext(), funding.TopUp{UserID: middleware.UserID(c), Method: method, Amount: req.Amount})
	if errors.Is(err, funding.ErrUnsupportedMethod) {
		return invalid("method must be one of card, bank_transfer, momo")
	}
	if err != nil {
		return err
	}
	if !decision.Approved {
		return fiber.NewError(fiber.StatusPaymentRequired, "Top-up declined: "+decision.Reason)
	}
	return h.post(c, ledger.Posting{
		Kind:        ledger.KindTopUp,
		Amount:      req.Amount,
		Description: fmt.Sprintf("Top up via %s (ref %.8s)", method, decision.Reference),
	})
}

// post records a wallet movement. The Idempotency-Key doubles as the
// ledger's client transaction id, so a retried request is not applied
// twice even when the Redis replay layer is off.
func (h *handlers) post(c *fiber.Ctx, p ledger.Posting) error {
	code, err := h.walletAccount(c)
	if err != nil {
		return err
	}
	p.Account = code
	p.ClientTxID = strings.TrimSpace(c.Get(wallet.IdempotencyHeader))

	entry, err := h.ledger.Post(c.UserContext(), p)
	switch {
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return respondNested(c, fiber.StatusOK, receiptOf(entry))
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Insufficient balance")
	case err != nil:
		return err
	}
	h.notifyPosting(c, entry)
	return respondNested(c, fiber.StatusCreated, receiptOf(entry))
}

func (h *handlers) notifyPosting(c *fiber.Ctx, e ledger.Entry) {
	msg := notification.Message{UserID: middleware.UserID(c)}
	switch e.Kind {
	case ledger.KindTopUp:
		msg.Kind = notification.KindTopUp
		msg.Body = fmt.Sprintf("Your wallet was credited %d %s. Balance: %d.", e.Amount, walletCurrency, e.Balance)
	case ledger.KindPayment:
		msg.Kind = notification.KindPayment
		msg.Body = fmt.Sprintf("You paid %d %s. Balance: %d.", -e.Amount, walletCurrency, e.Balance)
	default:
		return
	}
	h.notify(c, msg)
}

// notify never fails the request; delivery problems are only logged.
func (h *handlers) notify(c *fiber.Ctx, msg notification.Message) {
	if err := h.notifier.Send(c.UserContext(), msg); err != nil {
		h.logger.Warn("send notification", slog.String("kind", msg.Kind), slog.Any("error", err))
	}
}

func (h *handlers) transactions(c *fiber.Ctx) error {
	code, err := h.walletAccount(c)
	if err != nil {
		return err
	}
	q := pageQuery(c).Normalize()
	entries, total, err := h.ledger.History(c.UserContext(), code, (q.Page-1)*q.Size, q.Size)
	if err != nil {
		return err
	}
	records := make([]wallet.Transaction, 0, len(entries))
	for _, e := range entries {
		records = append(records, transactionOf(e))
	}
	return respond(c, fiber.StatusOK, result.Page[wallet.Transaction]{
		Records:  records,
		Total:    total,
		Page:     q.Page,
		Size:     q.Size,
		LastPage: (total + q.Size - 1) / q.Size,
	})
}

func (h *handlers) purchasePremium(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	account, err := h.accounts.Get(c.UserContext(), userID)
	if err != nil {
		return err
	}
	if account.IsPremium {
		return fiber.NewError(fiber.StatusConflict, "Account is already premium")
	}
	code, err := h.walletAccount(c)
	if err != nil {
		return err
	}
	entry, err := h.ledger.Post(c.UserContext(), ledger.Posting{
		Account:     code,
		Kind:        ledger.KindPremium,
		ClientTxID:  "premium:" + userID,
		Amount:      -PremiumPrice,
		Description: "Premium membership",
	})
	if errors.Is(err, ledger.ErrInsufficientFunds) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Insufficient balance")
	}
	if err != nil && !errors.Is(err, ledger.ErrDuplicateTransaction) {
		return err
	}
	account, err = h.accounts.SetPremium(c.UserContext(), userID)
	if err != nil {
		return err
	}
	h.notify(c, notification.Message{Kind: notification.KindPremium, UserID: userID, Body: "Premium membership is now active."})
	return respond(c, fiber.StatusOK, wallet.PremiumResult{User: account.Profile(), Transaction: transactionOf(entry)})
}

func receiptOf(e ledger.Entry) wallet.PaymentReceipt {
	amount := e.Amount
	if amount < 0 {
		amount = -amount
	}
	return wallet.PaymentReceipt{TransactionID: e.ID, Amount: amount, Balance: e.Balance, Status: e.Status}
}

func transactionOf(e ledger.Entry) wallet.Transaction {
	return wallet.Transaction{
		ID:          e.ID,
		Type:        e.Kind,
		Amount:      e.Amount,
		Description: e.Description,
		PlanID:      e.PlanID,
		Status:      e.Status,
		CreatedAt:   e.CreatedAt,
	}
}
