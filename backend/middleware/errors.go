package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/wonkyeggs/eggtrack/backend/models"
)

// CustomErrorHandler converts any unhandled error into a single JSON envelope.
// Stack traces never reach the client; the message string does.
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	if code >= 500 {
		slog.Error("Unhandled request error",
			slog.String("type", "http"),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err))
	}

	return c.Status(code).JSON(models.NewErrorResponse("INTERNAL_ERROR", err.Error(), nil))
}
