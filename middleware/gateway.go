package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuthMiddleware validates the Bearer token from the Gateway
func GatewayAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("SETTLEMENT_SERVICE_TOKEN")
	if expectedToken == "" {
		log.Fatal("❌ SETTLEMENT_SERVICE_TOKEN is not set — service cannot authenticate Gateway")
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Printf("🚫 [GATEWAY_AUTH] Missing Authorization header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		// Parse "Bearer <token>"; the Gateway may also send the raw token.
		token := strings.TrimPrefix(authHeader, "Bearer ")

		if token != expectedToken {
			log.Printf("❌ [GATEWAY_AUTH] Invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}

		return c.Next()
	}
}
