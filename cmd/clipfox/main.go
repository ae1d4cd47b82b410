package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/ClipFox/app/repository"
	"github.com/ManuelReschke/ClipFox/internal/pkg/cache"
	"github.com/ManuelReschke/ClipFox/internal/pkg/database"
	"github.com/ManuelReschke/ClipFox/internal/pkg/env"
	"github.com/ManuelReschke/ClipFox/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/ClipFox/internal/pkg/router"
)

func main() {
	app := NewApplication()

	flusher := counter.NewFlusher(env.GetEnvSeconds("COUNTER_FLUSH_SECONDS", 5*time.Second))
	flusher.Start()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("[Main] shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Errorf("[Main] shutdown: %v", err)
		}
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	flusher.Stop()
	if err != nil {
		log.Fatal(err)
	}
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	// Define possible base paths
	basePaths := []string{
		"./",     // Current directory
		"../../", // From cmd/clipfox to project root
	}

	basePath := "./"
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs"); err == nil {
			basePath = path
			break
		}
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName:   "ClipFox",
		BodyLimit: 1 << 20,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}
