package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HandleHealth reports the state of every registered dependency. Any failing
// check turns the response into a 503.
func HandleHealth(checks map[string]HealthCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		status := fiber.StatusOK
		results := make(fiber.Map, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.Warnf("[Health] %s: %v", name, err)
				results[name] = "down"
				status = fiber.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		return c.Status(status).JSON(fiber.Map{"status": results})
	}
}
