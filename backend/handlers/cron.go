package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// RefreshLeaderboardCron executes one controller tick. Intended for the
// external scheduler; any valid session token signed by the shared secret is
// accepted by the auth middleware in front of it.
func RefreshLeaderboardCron(app *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := app.Controller.Tick(c.Context())
		app.invalidateResponseCache()

		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(result)
		}
		return c.JSON(result)
	}
}
