package middleware

import (
	"strings"

	"eshop/internal/models"
	"eshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

// AuthRequired is a Fiber middleware to check for a valid bearer token. The
// resolved identity is stored in the request locals; failures are returned to
// the application error handler.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return services.ErrUnauthenticated
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return services.ErrUnauthenticated
		}

		identity, err := authService.Authenticate(c.UserContext(), strings.TrimSpace(parts[1]))
		if err != nil {
			return err
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// RoleRequired rejects authenticated callers that lack role. It must run after AuthRequired.
func RoleRequired(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := services.Authorize(IdentityFrom(c), role); err != nil {
			return err
		}
		return c.Next()
	}
}

// IdentityFrom returns the identity stored by AuthRequired, or nil.
func IdentityFrom(c *fiber.Ctx) *services.Identity {
	identity, _ := c.Locals(identityKey).(*services.Identity)
	return identity
}
