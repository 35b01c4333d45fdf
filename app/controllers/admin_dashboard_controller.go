package controllers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/profeds/advisor-dashboard/app/models"
	"github.com/profeds/advisor-dashboard/app/repository"
	"github.com/profeds/advisor-dashboard/internal/pkg/webhook"
)

var validate = validator.New()

type dashboardRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	AdvisorCode *string `json:"advisor_code" validate:"omitempty,min=2,max=100"`
	Active      *bool   `json:"active"`
}

// HandleAdminDashboardList returns all dashboards with per-tab contact counts.
func HandleAdminDashboardList(c *fiber.Ctx) error {
	dashboards, err := repository.GetGlobalFactory().GetDashboardRepository().List()
	if err != nil {
		log.Printf("[ADMIN] list dashboards: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load dashboards"})
	}
	return c.JSON(fiber.Map{"dashboards": dashboards})
}

// HandleAdminDashboardCreate creates a tenant dashboard.
func HandleAdminDashboardCreate(c *fiber.Ctx) error {
	var req dashboardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	dashboard := models.Dashboard{
		Name:        req.Name,
		AdvisorCode: req.AdvisorCode,
		Active:      true,
	}
	if req.Active != nil {
		dashboard.Active = *req.Active
	}

	if err := repository.GetGlobalFactory().GetDashboardRepository().Create(&dashboard); err != nil {
		log.Printf("[ADMIN] create dashboard: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create dashboard"})
	}
	return c.Status(fiber.StatusCreated).JSON(dashboard)
}

// HandleAdminDashboardGet returns a single dashboard.
func HandleAdminDashboardGet(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid dashboard id"})
	}

	dashboard, err := repository.GetGlobalFactory().GetDashboardRepository().GetByID(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Dashboard not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load dashboard"})
	}
	return c.JSON(dashboard)
}

// HandleAdminDashboardUpdate updates name, advisor code and active flag.
func HandleAdminDashboardUpdate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid dashboard id"})
	}

	repo := repository.GetGlobalFactory().GetDashboardRepository()
	dashboard, err := repo.GetByID(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Dashboard not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load dashboard"})
	}

	var req dashboardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	dashboard.Name = req.Name
	dashboard.AdvisorCode = req.AdvisorCode
	if req.Active != nil {
		dashboard.Active = *req.Active
	}

	if err := repo.Update(dashboard); err != nil {
		log.Printf("[ADMIN] update dashboard %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update dashboard"})
	}
	return c.JSON(dashboard)
}

// HandleAdminDashboardDelete removes a dashboard with its contacts and logs.
func HandleAdminDashboardDelete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid dashboard id"})
	}

	repo := repository.GetGlobalFactory().GetDashboardRepository()
	if _, err := repo.GetByID(uint(id)); errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Dashboard not found"})
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load dashboard"})
	}

	if err := repo.Delete(uint(id)); err != nil {
		log.Printf("[ADMIN] delete dashboard %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete dashboard"})
	}
	return c.JSON(fiber.Map{"success": true})
}

type testContactRequest struct {
	DashboardID uint   `json:"dashboard_id" validate:"required"`
	Action      string `json:"action" validate:"omitempty,oneof=register cancel attended attended_other fed_request"`
}

// HandleAdminTestContact writes a synthetic contact through the same upsert
// path the webhook uses, so operators can verify a dashboard without firing
// a real CRM workflow.
func HandleAdminTestContact(c *fiber.Ctx) error {
	var req testContactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	if req.Action == "" {
		req.Action = "register"
	}

	repos := repository.GetGlobalRepositories()
	dashboard, err := repos.Dashboard.GetByID(req.DashboardID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Dashboard not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load dashboard"})
	}
	if dashboard.AdvisorCode == nil || *dashboard.AdvisorCode == "" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Dashboard has no advisor code; webhooks cannot reach it"})
	}

	contactID := "test-" + uuid.NewString()
	first := "Test"
	last := "Contact"
	status := webhook.ActionStatusMap[req.Action]

	fields := map[string]*string{
		"contact_id": &contactID,
		"first_name": &first,
		"last_name":  &last,
	}
	if err := repos.Contact.Upsert(dashboard.ID, status, fields); err != nil {
		log.Printf("[ADMIN] test contact for dashboard %d: %v", dashboard.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create test contact"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":        true,
		"contact_id":     contactID,
		"contact_status": status,
		"dashboard_id":   dashboard.ID,
	})
}
