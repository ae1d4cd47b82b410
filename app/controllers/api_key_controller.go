package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ClipFox/app/repository"
	"github.com/ManuelReschke/ClipFox/internal/pkg/usercontext"
)

// APIKeyController lets a session user manage the API key used by
// non-browser clients of the payment API.
type APIKeyController struct {
	users repository.UserRepository
}

// NewAPIKeyController creates an API key controller.
func NewAPIKeyController(users repository.UserRepository) *APIKeyController {
	return &APIKeyController{users: users}
}

// HandleIssueAPIKey creates or rotates the caller's API key. The raw key is
// returned once and never stored.
func (ac *APIKeyController) HandleIssueAPIKey(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	settings, err := ac.users.GetOrCreateSettings(userID)
	if err != nil {
		log.Errorf("[APIKey] load settings for user %d failed: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user settings")
	}

	rawKey, err := settings.IssueAPIKey()
	if err != nil {
		log.Errorf("[APIKey] key generation for user %d failed: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to generate API key")
	}
	if err := ac.users.SaveSettings(settings); err != nil {
		log.Errorf("[APIKey] save settings for user %d failed: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to store API key")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"apiKey":    rawKey,
		"prefix":    settings.APIKeyPrefix,
		"createdAt": settings.APIKeyCreatedAt,
	})
}

// HandleRevokeAPIKey revokes the caller's API key.
func (ac *APIKeyController) HandleRevokeAPIKey(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	settings, err := ac.users.GetOrCreateSettings(userID)
	if err != nil {
		log.Errorf("[APIKey] load settings for user %d failed: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user settings")
	}
	if !settings.HasActiveAPIKey() {
		return c.SendStatus(fiber.StatusNoContent)
	}

	settings.RevokeAPIKey()
	if err := ac.users.SaveSettings(settings); err != nil {
		log.Errorf("[APIKey] save settings for user %d failed: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to revoke API key")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
