package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/ClipFox/app/controllers"
	"github.com/ManuelReschke/ClipFox/app/repository"
	"github.com/ManuelReschke/ClipFox/internal/pkg/billing"
	"github.com/ManuelReschke/ClipFox/internal/pkg/database"
	"github.com/ManuelReschke/ClipFox/internal/pkg/env"
	"github.com/ManuelReschke/ClipFox/internal/pkg/mediastore"
	"github.com/ManuelReschke/ClipFox/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/ClipFox/internal/pkg/middleware"
	"github.com/ManuelReschke/ClipFox/internal/pkg/session"
)

type ApiRouter struct {
	media *mediastore.Client
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	repos := repository.GetGlobalRepositories()
	billingService := billing.NewServiceFromDB(database.GetDB())

	var signer mediastore.URLSigner
	if h.media != nil {
		signer = h.media
	}

	payments := controllers.NewPaymentController(billingService)
	downloads := controllers.NewDownloadController(repos, billingService, signer, counter.AddVideoDownload)
	apiKeys := controllers.NewAPIKeyController(repos.User)

	// The processor retries on its own schedule and authenticates by
	// signature, so the webhook sits in front of the rate limiter and auth.
	app.Post("/api/payments/webhook", payments.HandleWebhook)

	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        env.GetEnvInt("API_RATE_LIMIT", 60),
		Expiration: time.Minute,
		Storage:    session.NewRedisStorage(2),
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "too many requests",
			})
		},
	}), middleware.APIKeyAuthMiddleware(repos.User))

	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	pay := api.Group("/payments", middleware.RequireAPIAuth)
	pay.Post("/create-intent", payments.HandleCreateIntent)
	pay.Post("/confirm", payments.HandleConfirmPayment)
	pay.Get("/history", payments.HandlePaymentHistory)

	api.Post("/videos/:uuid/download", middleware.RequireAPIAuth, downloads.HandleDownload)

	user := api.Group("/user", middleware.RequireAPIAuth)
	user.Get("/entitlement", payments.HandleGetEntitlement)
	user.Get("/downloads", downloads.HandleDownloadHistory)
	user.Post("/api-key", middleware.RequireSessionAuth, apiKeys.HandleIssueAPIKey)
	user.Delete("/api-key", middleware.RequireSessionAuth, apiKeys.HandleRevokeAPIKey)

	admin := api.Group("/admin", middleware.RequireAPIAdmin)
	admin.Put("/users/:id/premium", payments.HandleAdminSetPremium)
}

func NewApiRouter(media *mediastore.Client) *ApiRouter {
	return &ApiRouter{media: media}
}
