package controllers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ClipFox/app/models"
	"github.com/ManuelReschke/ClipFox/internal/pkg/billing"
	"github.com/ManuelReschke/ClipFox/internal/pkg/usercontext"
)

// PaymentService is the part of billing.Service the HTTP layer uses.
type PaymentService interface {
	CreateIntent(ctx context.Context, userID uint, rawPlan string) (*billing.IntentResult, error)
	ConfirmSuccess(ctx context.Context, callerID uint, intentID string) (*billing.ConfirmationResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (billing.Ack, error)
	PaymentHistory(ctx context.Context, userID uint, limit int) ([]models.PaymentRecord, error)
	SetPremiumOverride(ctx context.Context, userID uint, isPremium bool, expiry *time.Time) (*models.User, error)
	GetUser(ctx context.Context, userID uint) (*models.User, error)
}

type createIntentRequest struct {
	PlanType string `json:"planType" validate:"required"`
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required,max=255"`
}

type paymentRecordResponse struct {
	ID            uint      `json:"id"`
	PaymentID     string    `json:"paymentId"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	PlanType      string    `json:"planType"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// PaymentController serves the payment endpoints.
type PaymentController struct {
	svc      PaymentService
	validate *validator.Validate
}

// NewPaymentController creates a controller on top of svc.
func NewPaymentController(svc PaymentService) *PaymentController {
	return &PaymentController{svc: svc, validate: validator.New()}
}

// HandleCreateIntent starts a purchase and returns the client secret the
// browser needs to complete the payment.
func (pc *PaymentController) HandleCreateIntent(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req createIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}
	if err := pc.validate.Struct(req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_plan", "Invalid plan type")
	}

	res, err := pc.svc.CreateIntent(c.UserContext(), userCtx.UserID, req.PlanType)
	if err != nil {
		return respondBillingError(c, err)
	}
	return c.JSON(res)
}

// HandleConfirmPayment is the client-driven success callback.
func (pc *PaymentController) HandleConfirmPayment(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req confirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}
	req.PaymentIntentID = strings.TrimSpace(req.PaymentIntentID)
	if err := pc.validate.Struct(req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "paymentIntentId is required")
	}

	res, err := pc.svc.ConfirmSuccess(c.UserContext(), userCtx.UserID, req.PaymentIntentID)
	if err != nil {
		return respondBillingError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":          res.Message,
		"alreadyProcessed": res.AlreadyActivated,
		"expiresAt":        res.Record.ExpiresAt,
	})
}

// HandleWebhook receives processor deliveries. The body must be verified
// exactly as received, so it is copied before Fiber recycles the buffer.
func (pc *PaymentController) HandleWebhook(c *fiber.Ctx) error {
	started := time.Now()
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("Stripe-Signature")

	ack, err := pc.svc.HandleWebhook(c.UserContext(), rawBody, signature)

	kind := ack.Kind.String()
	if errors.Is(err, billing.ErrSignatureInvalid) {
		kind = "unverified"
	}
	defer func() {
		billing.WebhookRequestsTotal.WithLabelValues(kind, strconv.Itoa(c.Response().StatusCode())).Inc()
		billing.WebhookDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	}()

	if err != nil {
		if errors.Is(err, billing.ErrSignatureInvalid) {
			log.Warnf("[Webhook] rejected delivery from %s: %v", c.IP(), err)
		}
		return respondBillingError(c, err)
	}
	return c.JSON(fiber.Map{"received": true})
}

// HandlePaymentHistory lists the caller's payment records.
func (pc *PaymentController) HandlePaymentHistory(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	recs, err := pc.svc.PaymentHistory(c.UserContext(), userCtx.UserID, c.QueryInt("limit", 0))
	if err != nil {
		return respondBillingError(c, err)
	}

	out := make([]paymentRecordResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, paymentRecordResponse{
			ID:            r.ID,
			PaymentID:     r.ExternalPaymentID,
			Amount:        r.Amount,
			Currency:      r.Currency,
			PlanType:      r.PlanType,
			Status:        r.Status,
			PaymentMethod: r.PaymentMethod,
			CreatedAt:     r.CreatedAt,
			ExpiresAt:     r.ExpiresAt,
		})
	}
	return c.JSON(fiber.Map{"payments": out})
}
