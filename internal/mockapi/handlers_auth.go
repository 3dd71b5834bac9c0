package mockapi

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/wanderplan/wanderplan/internal/auth"
	"github.com/wanderplan/wanderplan/internal/funding"
	"github.com/wanderplan/wanderplan/internal/identity"
	"github.com/wanderplan/wanderplan/internal/ledger"
	"github.com/wanderplan/wanderplan/internal/middleware"
	"github.com/wanderplan/wanderplan/internal/notification"
	"github.com/wanderplan/wanderplan/internal/user"
)

// handlers serves every route of the stub.
type handlers struct {
	accounts *identity.Service
	tokens   *auth.TokenManager
	ledger   ledger.Ledger
	acquirer funding.Acquirer
	notifier notification.Notifier
	catalog  *catalog
	logger   *slog.Logger
}

type authResponse struct {
	auth.TokenPair
	User user.User `json:"user"`
}

func (h *handlers) login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Malformed request body")
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return invalid("username should not be empty", "password should not be empty")
	}
	account, err := h.accounts.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid username or password")
		}
		return err
	}
	return h.issue(c, fiber.StatusOK, account)
}

func (h *handlers) register(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Phone    string `json:"phone"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Malformed request body")
	}
	account, err := h.accounts.Register(c.UserContext(), identity.Registration{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	switch {
	case errors.Is(err, identity.ErrInvalidEmail):
		return invalid("email must be an email")
	case errors.Is(err, identity.ErrWeakPassword):
		return invalid("password must be longer than or equal to 6 characters")
	case errors.Is(err, identity.ErrAccountExists):
		return fiber.NewError(fiber.StatusConflict, "Email already registered")
	case err != nil:
		return err
	}

	// Every account gets a wallet at sign-up.
	if err := h.ledger.EnsureAccount(c.UserContext(), ledger.AccountCode(account.ID)); err != nil {
		return err
	}
	h.logger.Info("account registered", slog.String("user_id", account.ID))
	h.notify(c, notification.Message{Kind: notification.KindWelcome, UserID: account.ID, Body: "Welcome to Wanderplan!"})
	return h.issue(c, fiber.StatusCreated, account)
}

func (h *handlers) googleLogin(c *fiber.Ctx) error {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if err := c.BodyParser(&req); err != nil || req.IDToken == "" {
		return invalid("idToken should not be empty")
	}
	id, err := auth.ReadGoogleIDToken(req.IDToken)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid Google token")
	}
	account, err := h.accounts.GoogleAccount(c.UserContext(), id.Subject, id.Email, id.Name)
	if err != nil {
		return err
	}
	if err := h.ledger.EnsureAccount(c.UserContext(), ledger.AccountCode(account.ID)); err != nil {
		return err
	}
	return h.issue(c, fiber.StatusOK, account)
}

func (h *handlers) refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return invalid("refreshToken should not be empty")
	}
	claims, err := h.tokens.ParseRefresh(req.RefreshToken)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid refresh token")
	}
	account, err := h.accounts.Get(c.UserContext(), claims.Subject)
	if err != nil || account.TokenVersion != claims.Version {
		return fiber.NewError(fiber.StatusUnauthorized, "Refresh token has been revoked")
	}
	pair, err := h.tokens.Issue(subjectOf(account))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, pair)
}

func (h *handlers) logout(c *fiber.Ctx) error {
	if err := h.accounts.RevokeTokens(c.UserContext(), middleware.UserID(c)); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"message": "Logged out"})
}

// issue answers an authentication with tokens and the profile at the top
// level of the body, without the success envelope.
func (h *handlers) issue(c *fiber.Ctx, status int, account identity.Account) error {
	pair, err := h.tokens.Issue(subjectOf(account))
	if err != nil {
		return err
	}
	return c.Status(status).JSON(authResponse{TokenPair: pair, User: account.Profile()})
}

func subjectOf(a identity.Account) auth.Subject {
	return auth.Subject{ID: a.ID, Email: a.Email, Version: a.TokenVersion}
}
