package serverutils

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// NewAPIKeyMiddleware guards routes with a static X-Api-Key header.
// An empty configured key disables the check (local development).
func NewAPIKeyMiddleware(apiKey string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if apiKey == "" {
			return ctx.Next()
		}

		provided := ctx.Get("X-Api-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse("Invalid or missing API key"))
		}
		return ctx.Next()
	}
}
