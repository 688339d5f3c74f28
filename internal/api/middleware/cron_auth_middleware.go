package middleware

import (
	"crypto/subtle"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/creatortask/configs"
)

// CronAuth guards the dispatch trigger with the shared CRON_SECRET. The
// Authorization header must be exactly "Bearer <secret>". When auth is
// required and no secret is configured, every request is rejected.
func CronAuth(cfg config.Dispatch) fiber.Handler {
	expected := []byte("Bearer " + cfg.CronSecret)

	return func(c *fiber.Ctx) error {
		if !cfg.AuthRequired {
			return c.Next()
		}

		header := []byte(c.Get(fiber.HeaderAuthorization))
		if cfg.CronSecret == "" || subtle.ConstantTimeCompare(header, expected) != 1 {
			slog.Warn("rejected dispatch trigger", "ip", c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Next()
	}
}
