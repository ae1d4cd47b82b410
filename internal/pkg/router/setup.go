package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ClipFox/internal/pkg/mediastore"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App) {
	// HttpRouter goes first: it opens the session store and installs the
	// global UserContext middleware the API routes rely on.
	media := newMediaClient()
	setup(app, NewHttpRouter(media), NewApiRouter(media))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}

// newMediaClient returns nil when object storage is not configured. Downloads
// then answer 503 instead of failing at startup.
func newMediaClient() *mediastore.Client {
	cfg, err := mediastore.LoadConfig()
	if err != nil {
		log.Warnf("[Router] media store disabled: %v", err)
		return nil
	}
	client, err := mediastore.NewClient(cfg)
	if err != nil {
		log.Warnf("[Router] media store disabled: %v", err)
		return nil
	}
	return client
}
