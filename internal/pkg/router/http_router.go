package router

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuelReschke/ClipFox/app/controllers"
	"github.com/ManuelReschke/ClipFox/internal/pkg/cache"
	"github.com/ManuelReschke/ClipFox/internal/pkg/database"
	"github.com/ManuelReschke/ClipFox/internal/pkg/env"
	"github.com/ManuelReschke/ClipFox/internal/pkg/mediastore"
	"github.com/ManuelReschke/ClipFox/internal/pkg/middleware"
	"github.com/ManuelReschke/ClipFox/internal/pkg/session"
)

type HttpRouter struct {
	media *mediastore.Client
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	app.Get("/healthz", controllers.HandleHealth(h.healthChecks()))

	metrics := adaptor.HTTPHandler(promhttp.Handler())
	if user := env.GetEnv("METRICS_USER", ""); user != "" {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: map[string]string{
				user: env.GetEnv("METRICS_PASSWORD", ""),
			},
		}), metrics)
	} else {
		app.Get("/metrics", metrics)
	}
}

func (h HttpRouter) healthChecks() map[string]controllers.HealthCheck {
	checks := map[string]controllers.HealthCheck{
		"database": func(ctx context.Context) error {
			db := database.GetDB()
			if db == nil {
				return errors.New("not connected")
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"cache": func(ctx context.Context) error {
			return cache.GetClient().Ping(ctx).Err()
		},
	}
	if h.media != nil {
		checks["storage"] = h.media.Check
	}
	return checks
}

func NewHttpRouter(media *mediastore.Client) *HttpRouter {
	return &HttpRouter{media: media}
}
