package middleware

import (
	"github.com/gofiber/fiber/v2"

	icuser "github.com/ManuelReschke/ClipFox/internal/pkg/usercontext"
)

// RequireAPIAuth ensures an authenticated caller (session or API key) and
// returns JSON 401 otherwise.
func RequireAPIAuth(c *fiber.Ctx) error {
	if !icuser.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}

// RequireAPIAdmin ensures an authenticated admin and returns JSON 401/403 otherwise.
func RequireAPIAdmin(c *fiber.Ctx) error {
	uc := icuser.GetUserContext(c)
	if !uc.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	if !uc.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "admin role required",
		})
	}
	return c.Next()
}

// RequireSessionAuth restricts a route to browser sessions, so an API key
// cannot be used to mint or revoke API keys.
func RequireSessionAuth(c *fiber.Ctx) error {
	uc := icuser.GetUserContext(c)
	if !uc.IsLoggedIn || uc.AuthMethod != icuser.AuthMethodSession {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "session login required",
		})
	}
	return c.Next()
}
