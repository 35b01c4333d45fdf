package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/profeds/advisor-dashboard/app/models"
	"github.com/profeds/advisor-dashboard/app/repository"
	"github.com/profeds/advisor-dashboard/internal/pkg/alert"
)

// HandleAdminSharedKeyGet returns the shared webhook key, or 404 when none
// has been generated yet.
func HandleAdminSharedKeyGet(c *fiber.Ctx) error {
	key, err := repository.GetGlobalFactory().GetSettingRepository().GetString(models.SettingSharedWebhookKey, "")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load webhook key"})
	}
	if key == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "No webhook key has been generated"})
	}
	return c.JSON(fiber.Map{"key": key})
}

// HandleAdminSharedKeyRotate generates and stores a new shared webhook key,
// invalidating the previous one immediately.
func HandleAdminSharedKeyRotate(c *fiber.Ctx) error {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Printf("[ADMIN] key generation: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to generate webhook key"})
	}
	key := hex.EncodeToString(buf)

	if err := repository.GetGlobalFactory().GetSettingRepository().SetString(models.SettingSharedWebhookKey, key); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store webhook key"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"key": key})
}

// HandleAdminSharedKeyDelete removes the shared webhook key. All inbound
// deliveries are rejected until a new one is generated.
func HandleAdminSharedKeyDelete(c *fiber.Ctx) error {
	if err := repository.GetGlobalFactory().GetSettingRepository().DeleteKey(models.SettingSharedWebhookKey); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete webhook key"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleAdminLoggingSettingsGet returns the audit logging configuration.
func HandleAdminLoggingSettingsGet(c *fiber.Ctx) error {
	settings := repository.GetGlobalFactory().GetSettingRepository()

	enabled, err := settings.GetBool(models.SettingWebhookLogging, false)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load settings"})
	}
	retention, err := settings.GetInt(models.SettingLogRetentionDays, models.DefaultLogRetentionDays)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load settings"})
	}

	return c.JSON(fiber.Map{
		"logging_enabled": enabled,
		"retention_days":  alert.ClampRetentionDays(retention),
	})
}

type loggingSettingsRequest struct {
	LoggingEnabled *bool `json:"logging_enabled"`
	RetentionDays  *int  `json:"retention_days"`
}

// HandleAdminLoggingSettingsUpdate updates audit logging and retention.
// Retention is clamped into the supported range rather than rejected.
func HandleAdminLoggingSettingsUpdate(c *fiber.Ctx) error {
	var req loggingSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	settings := repository.GetGlobalFactory().GetSettingRepository()
	if req.LoggingEnabled != nil {
		if err := settings.SetBool(models.SettingWebhookLogging, *req.LoggingEnabled); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store settings"})
		}
	}
	if req.RetentionDays != nil {
		if err := settings.SetInt(models.SettingLogRetentionDays, alert.ClampRetentionDays(*req.RetentionDays)); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store settings"})
		}
	}

	return HandleAdminLoggingSettingsGet(c)
}

// HandleAdminAlertSettingsGet returns the failure alert configuration.
func HandleAdminAlertSettingsGet(c *fiber.Ctx) error {
	settings := repository.GetGlobalFactory().GetSettingRepository()

	enabled, err := settings.GetBool(models.SettingAlertsEnabled, false)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load settings"})
	}
	threshold, _ := settings.GetInt(models.SettingAlertThreshold, models.DefaultAlertThreshold)
	window, _ := settings.GetInt(models.SettingAlertWindowMinutes, models.DefaultAlertWindowMinutes)
	cooldown, _ := settings.GetInt(models.SettingAlertCooldownMin, models.DefaultAlertCooldownMinutes)
	notifyURL, _ := settings.GetString(models.SettingAlertNotifyURL, "")
	lastNotified, _ := settings.GetString(models.SettingAlertLastNotifiedAt, "")

	return c.JSON(fiber.Map{
		"alerts_enabled":   enabled,
		"threshold":        threshold,
		"window_minutes":   window,
		"cooldown_minutes": cooldown,
		"notify_url":       notifyURL,
		"last_notified_at": lastNotified,
	})
}

type alertSettingsRequest struct {
	AlertsEnabled   *bool   `json:"alerts_enabled"`
	Threshold       *int    `json:"threshold" validate:"omitempty,min=1,max=1000"`
	WindowMinutes   *int    `json:"window_minutes" validate:"omitempty,min=1,max=1440"`
	CooldownMinutes *int    `json:"cooldown_minutes" validate:"omitempty,min=1,max=10080"`
	NotifyURL       *string `json:"notify_url" validate:"omitempty,url"`
}

// HandleAdminAlertSettingsUpdate updates the failure alert configuration.
func HandleAdminAlertSettingsUpdate(c *fiber.Ctx) error {
	var req alertSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	settings := repository.GetGlobalFactory().GetSettingRepository()
	var err error
	if req.AlertsEnabled != nil {
		err = settings.SetBool(models.SettingAlertsEnabled, *req.AlertsEnabled)
	}
	if err == nil && req.Threshold != nil {
		err = settings.SetInt(models.SettingAlertThreshold, *req.Threshold)
	}
	if err == nil && req.WindowMinutes != nil {
		err = settings.SetInt(models.SettingAlertWindowMinutes, *req.WindowMinutes)
	}
	if err == nil && req.CooldownMinutes != nil {
		err = settings.SetInt(models.SettingAlertCooldownMin, *req.CooldownMinutes)
	}
	if err == nil && req.NotifyURL != nil {
		err = settings.SetString(models.SettingAlertNotifyURL, *req.NotifyURL)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store settings"})
	}

	return HandleAdminAlertSettingsGet(c)
}
