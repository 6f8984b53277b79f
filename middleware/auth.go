package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts the caller identity forwarded by the
// Gateway. Settlement routes are all caller-scoped, so a missing X-User-ID
// is rejected before any handler runs.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID missing on %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}
