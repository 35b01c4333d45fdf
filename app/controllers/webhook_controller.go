package controllers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/profeds/advisor-dashboard/app/repository"
	"github.com/profeds/advisor-dashboard/internal/pkg/ratelimit"
	"github.com/profeds/advisor-dashboard/internal/pkg/webhook"
)

const webhookTimeout = 15 * time.Second

var (
	processor     *webhook.Processor
	processorOnce sync.Once
)

func getProcessor() *webhook.Processor {
	processorOnce.Do(func() {
		repos := repository.GetGlobalRepositories()
		processor = &webhook.Processor{
			Limiter:    ratelimit.Default(),
			Dashboards: repos.Dashboard,
			Contacts:   repos.Contact,
			Logs:       repos.WebhookLog,
			Settings:   repos.Setting,
		}
	})
	return processor
}

// HandleWebhook receives one HighLevel delivery. The key may arrive as a
// path segment or in the X-Webhook-Key header; the body is passed through
// untouched so the pipeline (and the audit trail) sees the raw bytes.
func HandleWebhook(c *fiber.Ctx) error {
	key := strings.TrimSpace(c.Params("webhook_key"))
	if key == "" {
		key = strings.TrimSpace(c.Get("X-Webhook-Key"))
	}

	// Copy the body: fiber reuses its buffers after the handler returns and
	// the raw bytes end up in the audit log.
	raw := make([]byte, len(c.Body()))
	copy(raw, c.Body())

	ctx, cancel := context.WithTimeout(c.UserContext(), webhookTimeout)
	defer cancel()

	result := getProcessor().Handle(ctx, webhook.Request{
		Key:         key,
		SourceIP:    c.IP(),
		RawBody:     raw,
		ContentType: c.Get(fiber.HeaderContentType),
	})

	return c.Status(result.HTTPStatus).JSON(result.Body())
}
