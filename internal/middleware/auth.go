package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/wanderplan/wanderplan/internal/auth"
	"github.com/wanderplan/wanderplan/internal/identity"
)

const userIDKey = "user_id"

// Authenticate validates bearer access tokens and checks the token version
// against the account so logged-out tokens are refused.
func Authenticate(tokens *auth.TokenManager, accounts *identity.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if len(authz) < len("Bearer ") || !strings.EqualFold(authz[:len("Bearer ")], "Bearer ") {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}
		claims, err := tokens.ParseAccess(strings.TrimSpace(authz[len("Bearer "):]))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		account, err := accounts.Get(c.UserContext(), claims.Subject)
		if err != nil || account.TokenVersion != claims.Version {
			return fiber.NewError(fiber.StatusUnauthorized, "Token has been revoked")
		}

		c.Locals(userIDKey, account.ID)
		return c.Next()
	}
}

// UserID returns the account id set by Authenticate, or "".
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}
