package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ClipFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/ClipFox/internal/pkg/usercontext"
)

type premiumOverrideRequest struct {
	IsPremium     *bool      `json:"isPremium" validate:"required"`
	PremiumExpiry *time.Time `json:"premiumExpiry"`
}

// HandleAdminSetPremium grants or revokes premium by hand. Granting without
// an expiry grants one year.
func (pc *PaymentController) HandleAdminSetPremium(c *fiber.Ctx) error {
	targetID, err := c.ParamsInt("id")
	if err != nil || targetID <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid user id")
	}

	var req premiumOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}
	if err := pc.validate.Struct(req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "isPremium is required")
	}

	user, err := pc.svc.SetPremiumOverride(c.UserContext(), uint(targetID), *req.IsPremium, req.PremiumExpiry)
	if err != nil {
		return respondBillingError(c, err)
	}

	log.Infof("[Admin] user %d set premium=%t for user %d", usercontext.GetUserID(c), *req.IsPremium, user.ID)
	return c.JSON(fiber.Map{
		"id":          user.ID,
		"entitlement": entitlements.Describe(user, time.Now()),
	})
}

// HandleGetEntitlement returns the caller's premium state as the access
// guard currently sees it.
func (pc *PaymentController) HandleGetEntitlement(c *fiber.Ctx) error {
	user, err := pc.svc.GetUser(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return respondBillingError(c, err)
	}
	return c.JSON(entitlements.Describe(user, time.Now()))
}
