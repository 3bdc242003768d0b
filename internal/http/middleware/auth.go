package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/apperror"
	"docvault/internal/auth"
)

// IdentityLocalKey is where RequireAuth stores the caller's auth.Identity.
const IdentityLocalKey = "identity"

// TokenVerifier turns a bearer token into an identity.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// RequireAuth rejects requests without a valid bearer token. The token is
// read from the Authorization header, or from the token query parameter when
// allowQuery is set (browsers cannot set headers on a WebSocket handshake).
func RequireAuth(v TokenVerifier, allowQuery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := BearerToken(c)
		if raw == "" && allowQuery {
			raw = c.Query("token")
		}
		if raw == "" {
			return apperror.Unauthenticated("NO_TOKEN", "No token provided")
		}
		id, err := v.Verify(raw)
		if err != nil {
			return apperror.Unauthenticated("INVALID_TOKEN", "Invalid or expired token")
		}
		c.Locals(IdentityLocalKey, id)
		return c.Next()
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// IdentityFrom returns the identity stored by RequireAuth.
func IdentityFrom(c *fiber.Ctx) (auth.Identity, bool) {
	id, ok := c.Locals(IdentityLocalKey).(auth.Identity)
	return id, ok
}
