package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/profeds/advisor-dashboard/app/repository"
	"github.com/profeds/advisor-dashboard/internal/pkg/alert"
	"github.com/profeds/advisor-dashboard/internal/pkg/cache"
	"github.com/profeds/advisor-dashboard/internal/pkg/database"
	"github.com/profeds/advisor-dashboard/internal/pkg/env"
	"github.com/profeds/advisor-dashboard/internal/pkg/ratelimit"
	"github.com/profeds/advisor-dashboard/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	// Webhook rate limiting counts in Redis so the limits hold across
	// instances; without a reachable cache the in-memory fallback stays in
	// place so the limits still bind per process.
	if cache.IsConnected() {
		ratelimit.SetDefault(ratelimit.NewRedisLimiter(cache.GetClient()))
	}

	startWorkers()

	app := fiber.New(fiber.Config{
		AppName:   "advisor-dashboard",
		BodyLimit: 1 * 1024 * 1024, // webhook payloads are small JSON bodies
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}

// startWorkers launches the audit retention sweeper and the failure monitor.
// Both stop when the process receives an interrupt or termination signal.
func startWorkers() {
	repos := repository.GetGlobalRepositories()
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	go alert.NewSweeper(repos.WebhookLog, repos.Setting).Run(ctx)
	go alert.NewMonitor(repos.WebhookLog, repos.Setting).Run(ctx)
}
