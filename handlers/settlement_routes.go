// handlers/settlement_routes.go
package handlers

import (
	"errors"
	"strconv"

	"match-settlement-system/middleware"
	"match-settlement-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupSettlementRoutes(app *fiber.App, settlementService *services.SettlementService) {
	// 🔐 Secured routes — require the gateway-forwarded user context.
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Post("/match/settle", func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)

		var req struct {
			GameID string `json:"gameId"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		result, err := settlementService.Settle(c.UserContext(), userID, req.GameID)
		if err != nil {
			return settlementError(c, err)
		}
		return c.JSON(result)
	})

	securedGroup.Get("/user/rating", func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)

		rating, err := settlementService.RatingFor(c.UserContext(), userID)
		if err != nil {
			return settlementError(c, err)
		}
		return c.JSON(rating)
	})

	securedGroup.Get("/user/ledger", func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)

		limit := 20
		if limitStr := c.Query("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err != nil || parsed <= 0 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid limit parameter"})
			}
			if parsed > 100 {
				parsed = 100
			}
			limit = parsed
		}

		entries, err := settlementService.RecentLedger(c.UserContext(), userID, limit)
		if err != nil {
			return settlementError(c, err)
		}
		return c.JSON(entries)
	})
}

// settlementError maps the service error classes onto HTTP statuses.
// Anything unclassified is an internal failure (including transaction
// retry exhaustion).
func settlementError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		status = fiber.StatusUnauthorized
	case errors.Is(err, services.ErrInvalidArgument):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrPermissionDenied):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrFailedPrecondition):
		status = fiber.StatusPreconditionFailed
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
