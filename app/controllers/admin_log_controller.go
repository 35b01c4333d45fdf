package controllers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/profeds/advisor-dashboard/app/repository"
)

// HandleAdminWebhookLogList returns audit entries, newest first. Bodies are
// omitted from the listing; fetch a single entry for the full record.
func HandleAdminWebhookLogList(c *fiber.Ctx) error {
	opts := repository.WebhookLogListOptions{
		Page:         c.QueryInt("page", 1),
		PerPage:      c.QueryInt("per_page", 50),
		OrderBy:      c.Query("orderby", "created_at"),
		Order:        c.Query("order", "desc"),
		StatusFilter: c.Query("status"),
		DateFrom:     c.Query("date_from"),
		DateTo:       c.Query("date_to"),
		Search:       c.Query("search"),
	}
	if raw := c.Query("dashboard_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid dashboard_id"})
		}
		u := uint(id)
		opts.DashboardID = &u
	}

	entries, total, err := repository.GetGlobalFactory().GetWebhookLogRepository().List(opts)
	if err != nil {
		log.Printf("[ADMIN] list webhook logs: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load webhook logs"})
	}

	c.Set("X-Total", strconv.FormatInt(total, 10))
	return c.JSON(fiber.Map{"logs": entries, "total": total})
}

// HandleAdminWebhookLogGet returns one audit entry including both bodies.
func HandleAdminWebhookLogGet(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid log id"})
	}

	entry, err := repository.GetGlobalFactory().GetWebhookLogRepository().GetByID(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Log entry not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load log entry"})
	}
	return c.JSON(entry)
}

// HandleAdminWebhookLogCodes returns error-code counts for the filter UI.
func HandleAdminWebhookLogCodes(c *fiber.Ctx) error {
	var dashboardID *uint
	if raw := c.Query("dashboard_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid dashboard_id"})
		}
		u := uint(id)
		dashboardID = &u
	}

	counts, err := repository.GetGlobalFactory().GetWebhookLogRepository().ErrorCodeCounts(dashboardID)
	if err != nil {
		log.Printf("[ADMIN] webhook log error codes: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load error codes"})
	}
	return c.JSON(fiber.Map{"codes": counts})
}

// HandleAdminWebhookLogClear deletes audit entries, optionally scoped to one
// dashboard.
func HandleAdminWebhookLogClear(c *fiber.Ctx) error {
	var dashboardID *uint
	if raw := c.Query("dashboard_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid dashboard_id"})
		}
		u := uint(id)
		dashboardID = &u
	}

	if err := repository.GetGlobalFactory().GetWebhookLogRepository().Clear(dashboardID); err != nil {
		log.Printf("[ADMIN] clear webhook logs: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to clear webhook logs"})
	}
	return c.JSON(fiber.Map{"success": true})
}
