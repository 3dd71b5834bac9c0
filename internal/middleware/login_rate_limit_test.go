package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func loginApp(cache *redis.Client) *fiber.App {
	app := fiber.New()
	app.Post("/auth/login", LoginRateLimit(cache, 2), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func attempt(t *testing.T, app *fiber.App, username string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/auth/login", strings.NewReader(`{"username":"`+username+`"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestLoginRateLimitPerUsername(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })
	app := loginApp(cache)

	for i := 0; i < 2; i++ {
		if got := attempt(t, app, "Alice"); got != fiber.StatusOK {
			t.Fatalf("attempt %d status = %d", i+1, got)
		}
	}
	if got := attempt(t, app, "alice"); got != fiber.StatusTooManyRequests {
		t.Fatalf("third attempt status = %d", got)
	}
	if got := attempt(t, app, "bob"); got != fiber.StatusOK {
		t.Fatalf("other user status = %d", got)
	}
}

func TestLoginRateLimitFailsOpen(t *testing.T) {
	app := loginApp(nil)
	for i := 0; i < 5; i++ {
		if got := attempt(t, app, "alice"); got != fiber.StatusOK {
			t.Fatalf("status without redis = %d", got)
		}
	}

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })
	mr.Close()
	app = loginApp(cache)
	if got := attempt(t, app, "alice"); got != fiber.StatusOK {
		t.Fatalf("status with redis down = %d", got)
	}
}
