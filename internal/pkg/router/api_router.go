package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/profeds/advisor-dashboard/app/controllers"
	"github.com/profeds/advisor-dashboard/internal/pkg/cache"
	"github.com/profeds/advisor-dashboard/internal/pkg/env"
	"github.com/profeds/advisor-dashboard/internal/pkg/middleware"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Advisor Dashboard API",
		})
	})

	v1 := api.Group("/v1")

	// The webhook endpoint carries its own two-stage rate limiter inside the
	// pipeline, so it stays outside the fiber limiter.
	v1.Post("/webhook", controllers.HandleWebhook)
	v1.Post("/webhook/:webhook_key", controllers.HandleWebhook)

	admin := v1.Group("/admin",
		limiter.New(limiter.Config{
			Max:        300,
			Expiration: time.Minute,
			Storage:    limiterStorage(),
		}),
		middleware.AdminAuthMiddleware(),
	)

	admin.Get("/dashboards", controllers.HandleAdminDashboardList)
	admin.Post("/dashboards", controllers.HandleAdminDashboardCreate)
	admin.Get("/dashboards/:id", controllers.HandleAdminDashboardGet)
	admin.Put("/dashboards/:id", controllers.HandleAdminDashboardUpdate)
	admin.Delete("/dashboards/:id", controllers.HandleAdminDashboardDelete)

	admin.Get("/dashboards/:id/contacts", controllers.HandleContactList)
	admin.Get("/dashboards/:id/contacts/dates", controllers.HandleContactDates)
	admin.Get("/dashboards/:id/contacts/summary", controllers.HandleContactSummary)
	admin.Patch("/dashboards/:id/contacts/:contact_id", controllers.HandleContactUpdate)
	admin.Delete("/dashboards/:id/contacts/:contact_id", controllers.HandleContactDelete)

	admin.Get("/webhook-logs", controllers.HandleAdminWebhookLogList)
	admin.Get("/webhook-logs/codes", controllers.HandleAdminWebhookLogCodes)
	admin.Get("/webhook-logs/:id", controllers.HandleAdminWebhookLogGet)
	admin.Delete("/webhook-logs", controllers.HandleAdminWebhookLogClear)

	admin.Get("/settings/webhook-key", controllers.HandleAdminSharedKeyGet)
	admin.Post("/settings/webhook-key", controllers.HandleAdminSharedKeyRotate)
	admin.Delete("/settings/webhook-key", controllers.HandleAdminSharedKeyDelete)
	admin.Get("/settings/logging", controllers.HandleAdminLoggingSettingsGet)
	admin.Put("/settings/logging", controllers.HandleAdminLoggingSettingsUpdate)
	admin.Get("/settings/alerts", controllers.HandleAdminAlertSettingsGet)
	admin.Put("/settings/alerts", controllers.HandleAdminAlertSettingsUpdate)

	admin.Post("/test-contact", controllers.HandleAdminTestContact)
}

// limiterStorage builds a Redis-backed store for the admin limiter so counts
// survive restarts and are shared between instances. Database 1 keeps the
// limiter keys out of the cache's keyspace.
func limiterStorage() *redis.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")

	if client := cache.GetClient(); client != nil {
		if h, p, err := net.SplitHostPort(client.Options().Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}
