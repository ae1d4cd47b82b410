package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ClipFox/internal/pkg/billing"
)

type billingErrorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// Order matters only for errors wrapping several sentinels; none do today.
var billingErrorMappings = []billingErrorMapping{
	{billing.ErrInvalidPlan, fiber.StatusBadRequest, "invalid_plan", "Invalid plan type"},
	{billing.ErrSignatureInvalid, fiber.StatusBadRequest, "invalid_signature", "Webhook signature verification failed"},
	{billing.ErrMalformedEvent, fiber.StatusBadRequest, "invalid_payload", "Malformed payment event"},
	{billing.ErrPaymentNotSucceeded, fiber.StatusBadRequest, "payment_not_succeeded", "Payment not successful"},
	{billing.ErrIntentOwnerMismatch, fiber.StatusForbidden, "forbidden", "Payment belongs to another user"},
	{billing.ErrIntentNotFound, fiber.StatusNotFound, "payment_not_found", "Payment intent not found"},
	{billing.ErrUserNotFound, fiber.StatusNotFound, "user_not_found", "User not found"},
	{billing.ErrGatewayUnavailable, fiber.StatusBadGateway, "gateway_unavailable", "Payment provider unavailable"},
	{billing.ErrStoreUnavailable, fiber.StatusServiceUnavailable, "store_unavailable", "Payment store unavailable"},
}

// billingStatus maps a billing error onto an HTTP status and error code.
func billingStatus(err error) (int, string, string) {
	for _, m := range billingErrorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code, m.message
		}
	}
	return fiber.StatusInternalServerError, "internal_server_error", "Unexpected error"
}

// respondBillingError writes the JSON error for err and logs server-side failures.
func respondBillingError(c *fiber.Ctx, err error) error {
	status, code, message := billingStatus(err)
	if status >= fiber.StatusInternalServerError {
		log.Errorf("[Billing] %s %s: %v", c.Method(), c.Path(), err)
	}
	return jsonError(c, status, code, message)
}
