package controllers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/profeds/advisor-dashboard/app/models"
	"github.com/profeds/advisor-dashboard/app/repository"
)

func dashboardFromParams(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return 0, errors.New("invalid dashboard id")
	}
	return uint(id), nil
}

func contactListOptions(c *fiber.Ctx) repository.ContactListOptions {
	return repository.ContactListOptions{
		Tab:        c.Query("tab", "current_registrations"),
		Page:       c.QueryInt("page", 1),
		PerPage:    c.QueryInt("per_page", 50),
		OrderBy:    c.Query("orderby", "created_at"),
		Order:      c.Query("order", "desc"),
		Search:     c.Query("search"),
		DateFilter: c.Query("date"),
		DateField:  c.Query("date_field"),
	}
}

// HandleContactList returns one tab of a dashboard's contacts with paging
// metadata in the X-Total and X-Total-Pages headers.
func HandleContactList(c *fiber.Ctx) error {
	dashboardID, err := dashboardFromParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	opts := contactListOptions(c)
	contacts, total, err := repository.GetGlobalFactory().GetContactRepository().List(dashboardID, opts)
	if err != nil {
		log.Printf("[DASHBOARD] list contacts for dashboard %d: %v", dashboardID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load contacts"})
	}

	perPage := opts.PerPage
	if perPage < 1 {
		perPage = 50
	}
	if perPage > 5000 {
		perPage = 5000
	}
	totalPages := (total + int64(perPage) - 1) / int64(perPage)

	c.Set("X-Total", strconv.FormatInt(total, 10))
	c.Set("X-Total-Pages", strconv.FormatInt(totalPages, 10))
	return c.JSON(fiber.Map{"contacts": contacts, "total": total})
}

// HandleContactDates returns the distinct date values of a tab, newest
// first, for the date filter dropdown.
func HandleContactDates(c *fiber.Ctx) error {
	dashboardID, err := dashboardFromParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	dates, err := repository.GetGlobalFactory().GetContactRepository().DistinctDates(
		dashboardID,
		c.Query("tab", "current_registrations"),
		c.Query("date_field"),
	)
	if err != nil {
		log.Printf("[DASHBOARD] contact dates for dashboard %d: %v", dashboardID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load dates"})
	}
	return c.JSON(fiber.Map{"dates": dates})
}

// HandleContactSummary returns the tab's aggregate counts for the header
// cards: totals, guest count and the per-column breakdowns.
func HandleContactSummary(c *fiber.Ctx) error {
	dashboardID, err := dashboardFromParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	summary, err := repository.GetGlobalFactory().GetContactRepository().Summary(dashboardID, contactListOptions(c))
	if err != nil {
		log.Printf("[DASHBOARD] contact summary for dashboard %d: %v", dashboardID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load summary"})
	}
	return c.JSON(summary)
}

type contactUpdateRequest struct {
	AdvisorStatus *string `json:"advisor_status"`
	AdvisorNotes  *string `json:"advisor_notes"`
}

// HandleContactUpdate changes the operator triage fields of one contact.
func HandleContactUpdate(c *fiber.Ctx) error {
	dashboardID, err := dashboardFromParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}
	contactID, err := c.ParamsInt("contact_id")
	if err != nil || contactID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid contact id"})
	}

	var req contactUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.AdvisorStatus != nil && !models.IsValidAdvisorStatus(*req.AdvisorStatus) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "Unknown advisor_status"})
	}

	err = repository.GetGlobalFactory().GetContactRepository().UpdateAdvisorFields(dashboardID, uint(contactID), req.AdvisorNotes, req.AdvisorStatus)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Contact not found"})
	}
	if err != nil {
		log.Printf("[DASHBOARD] update contact %d on dashboard %d: %v", contactID, dashboardID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update contact"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleContactDelete removes one contact from a dashboard.
func HandleContactDelete(c *fiber.Ctx) error {
	dashboardID, err := dashboardFromParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}
	contactID, err := c.ParamsInt("contact_id")
	if err != nil || contactID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid contact id"})
	}

	err = repository.GetGlobalFactory().GetContactRepository().Delete(dashboardID, uint(contactID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Contact not found"})
	}
	if err != nil {
		log.Printf("[DASHBOARD] delete contact %d on dashboard %d: %v", contactID, dashboardID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete contact"})
	}
	return c.JSON(fiber.Map{"success": true})
}
