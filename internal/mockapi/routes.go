package mockapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wanderplan/wanderplan/internal/auth"
	"github.com/wanderplan/wanderplan/internal/config"
	"github.com/wanderplan/wanderplan/internal/funding"
	"github.com/wanderplan/wanderplan/internal/identity"
	"github.com/wanderplan/wanderplan/internal/ledger"
	"github.com/wanderplan/wanderplan/internal/logging"
	"github.com/wanderplan/wanderplan/internal/metrics"
	"github.com/wanderplan/wanderplan/internal/middleware"
	"github.com/wanderplan/wanderplan/internal/notification"
)

// devJWTSecret signs tokens in development when JWT_SECRET is unset.
const devJWTSecret = "wanderplan-dev-secret"

// Demo account seeded at start-up.
const (
	DemoUsername = "alice"
	DemoEmail    = "alice@example.com"
	DemoPassword = "secret"
	demoBalance  = 2_000_000
)

// topUpLimit caps a single top-up.
const topUpLimit = 50_000_000

func setup(ctx context.Context, app *fiber.App, cfg config.Config, d Deps) error {
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	if !cfg.IsDev() && d.Cache == nil {
		return fmt.Errorf("redis is required when APP_ENV=%s", cfg.AppEnv)
	}
	logger := d.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	registry := d.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	var ledgerBackend ledger.Ledger
	if d.DB != nil {
		pg := ledger.NewPostgresLedger(d.DB)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		ledgerBackend = pg
	} else {
		ledgerBackend = ledger.NewInMemory()
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret = devJWTSecret
	}
	h := &handlers{
		accounts: identity.NewService(identity.NewMemoryRepository()),
		tokens:   auth.NewTokenManager(secret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		ledger:   ledgerBackend,
		acquirer: funding.StaticAcquirer{Limit: topUpLimit},
		notifier: notification.NewLoggerNotifier(logger),
		catalog:  newCatalog(),
		logger:   logger,
	}
	if err := h.seedDemo(ctx); err != nil {
		return fmt.Errorf("seed demo account: %w", err)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(logger, metrics.NewServer(registry)))

	app.Get("/health", health(d))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	authed := middleware.Authenticate(h.tokens, h.accounts)
	idempotent := func(c *fiber.Ctx) error { return c.Next() }
	if d.Cache != nil {
		idempotent = middleware.Idempotency(d.Cache, cfg.IdempotencyTTL, logger)
	}

	a := app.Group("/auth")
	a.Post("/login", middleware.LoginRateLimit(d.Cache, 5), h.login)
	a.Post("/register", h.register)
	a.Post("/google", h.googleLogin)
	a.Post("/refresh", h.refresh)
	a.Post("/logout", authed, h.logout)

	p := app.Group("/places")
	p.Get("/get-all", h.listPlaces)
	p.Get("/favorites", authed, h.favoritePlaces)
	p.Get("/:id", h.getPlace)
	p.Post("/:id/favorite", authed, h.toggleFavorite)

	app.Post("/plans/generate-travel-plan", authed, h.generatePlan)
	app.Post("/mcp/generate-travel-plan", authed, h.generatePlan)
	pl := app.Group("/plans", authed)
	pl.Get("/get-all", h.listPlans)
	pl.Get("/:id", h.getPlan)
	pl.Delete("/:id", h.deletePlan)

	w := app.Group("/wallet", authed)
	w.Get("/balance", h.balance)
	w.Post("/pay", idempotent, h.pay)
	w.Post("/top-up", idempotent, h.topUp)
	w.Get("/transactions", h.transactions)
	w.Post("/premium", h.purchasePremium)

	app.Post("/feedback", authed, h.createReview)
	app.Get("/feedback/place/:id", h.placeReviews)

	u := app.Group("/users", authed)
	u.Get("/profile", h.profile)
	u.Put("/profile", h.updateProfile)
	u.Put("/change-password", h.changePassword)

	app.Post("/upload/images", authed, h.uploadImages)
	app.Get("/upload/images/:id", h.uploadInfo)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Cannot %s %s", c.Method(), c.Path()))
	})
	return nil
}

// seedDemo creates the demo traveller with a funded wallet.
func (h *handlers) seedDemo(ctx context.Context) error {
	account, err := h.accounts.Register(ctx, identity.Registration{
		Username: DemoUsername,
		Email:    DemoEmail,
		Password: DemoPassword,
		Name:     "Alice",
	})
	if err != nil {
		return err
	}
	code := ledger.AccountCode(account.ID)
	if err := h.ledger.EnsureAccount(ctx, code); err != nil {
		return err
	}
	_, err = h.ledger.Post(ctx, ledger.Posting{
		Account:     code,
		Kind:        ledger.KindTopUp,
		ClientTxID:  "seed",
		Amount:      demoBalance,
		Description: "Welcome credit",
	})
	if err != nil && !errors.Is(err, ledger.ErrDuplicateTransaction) {
		return err
	}
	h.logger.Info("demo account ready", slog.String("username", DemoUsername))
	return nil
}

// health reports dependency reachability, like a readiness probe.
func health(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbStatus := "disabled"
		redisStatus := "disabled"

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if d.DB != nil {
			dbStatus = "ok"
			if err := d.DB.Ping(ctx); err != nil {
				dbStatus = err.Error()
			}
		}
		if d.Cache != nil {
			redisStatus = "ok"
			if err := d.Cache.Ping(ctx).Err(); err != nil {
				redisStatus = err.Error()
			}
		}
		status := fiber.StatusOK
		if (d.DB != nil && dbStatus != "ok") || (d.Cache != nil && redisStatus != "ok") {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"status":    fiber.Map{"postgres": dbStatus, "redis": redisStatus},
			"requestId": middleware.RequestIDFrom(c),
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}
