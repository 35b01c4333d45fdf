package repository

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/profeds/advisor-dashboard/app/models"
)

// contactRepository implements the ContactRepository interface
type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new contact repository instance
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

var allowedOrderBy = map[string]bool{
	"first_name": true, "last_name": true, "workshop_date": true,
	"city": true, "state": true, "agency": true, "status": true,
	"contact_status": true, "date_of_lead_request": true,
	"registration_form_completed": true, "created_at": true,
	"spouse_name": true, "cell_phone": true, "work_email": true,
	"personal_email": true, "best_email": true, "retirement_system": true,
	"special_provisions": true, "time_frame_for_retirement": true,
	"meet_for_report": true, "rate_material": true,
	"member_workshop_code": true, "rsvp_confirmed": true,
	"advisor_status": true,
}

var allowedDateFields = map[string]bool{
	"workshop_date":        true,
	"date_of_lead_request": true,
}

var identRe = regexp.MustCompile(`^[a-z_]+$`)

// Upsert inserts or overwrites a contact in a single conditional statement
// keyed on (dashboard_id, contact_id). On conflict every provided field is
// overwritten (a nil value writes NULL), previous_status captures the row's
// status before the write, and absent fields keep their stored values —
// which is what makes replaying the same payload a no-op. Field keys are
// canonical column names produced by the payload mapper.
func (r *contactRepository) Upsert(dashboardID uint, status string, fields map[string]*string) error {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !identRe.MatchString(col) {
			return fmt.Errorf("upsert: invalid column name %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	now := time.Now()
	columns := []string{"dashboard_id", "contact_status", "created_at", "updated_at"}
	args := []interface{}{dashboardID, status, now, now}
	updates := []string{
		"previous_status = contact_status",
		"contact_status = VALUES(contact_status)",
	}

	for _, col := range cols {
		columns = append(columns, col)
		args = append(args, fields[col])
		// Identity columns never appear in the UPDATE clause.
		if col == "contact_id" {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", col, col))
	}
	updates = append(updates, "updated_at = NOW()")

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	sql := fmt.Sprintf(
		"INSERT INTO contacts (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		strings.Join(columns, ", "), placeholders, strings.Join(updates, ", "),
	)

	return r.db.Exec(sql, args...).Error
}

// Cancel transitions an existing contact to cancelled, preserving the prior
// status and merging any extra fields sent with the cancel payload. Returns
// gorm.ErrRecordNotFound when no row exists — cancelling a contact that was
// never registered is an upstream error, not an implicit create.
func (r *contactRepository) Cancel(dashboardID uint, contactID string, extra map[string]*string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Contact
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("dashboard_id = ? AND contact_id = ?", dashboardID, contactID).
			First(&existing).Error
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"previous_status": existing.ContactStatus,
			"contact_status":  models.ContactStatusCancelled,
			"updated_at":      time.Now(),
		}
		for col, val := range extra {
			switch col {
			case "dashboard_id", "contact_id", "contact_status", "previous_status":
				continue
			}
			if !identRe.MatchString(col) {
				return fmt.Errorf("cancel: invalid column name %q", col)
			}
			updates[col] = val
		}

		return tx.Model(&models.Contact{}).Where("id = ?", existing.ID).Updates(updates).Error
	})
}

func (r *contactRepository) GetByExternalID(dashboardID uint, contactID string) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.Where("dashboard_id = ? AND contact_id = ?", dashboardID, contactID).First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepository) filteredQuery(dashboardID uint, opts ContactListOptions) *gorm.DB {
	statuses, ok := TabStatusMap[opts.Tab]
	if !ok {
		statuses = TabStatusMap["current_registrations"]
	}

	q := r.db.Model(&models.Contact{}).
		Where("dashboard_id = ? AND contact_status IN ?", dashboardID, statuses)

	if opts.Search != "" {
		like := "%" + opts.Search + "%"
		q = q.Where("first_name LIKE ? OR last_name LIKE ?", like, like)
	}
	if opts.DateFilter != "" {
		dateCol := "workshop_date"
		if allowedDateFields[opts.DateField] {
			dateCol = opts.DateField
		}
		q = q.Where(dateCol+" = ?", opts.DateFilter)
	}
	return q
}

func (r *contactRepository) List(dashboardID uint, opts ContactListOptions) ([]models.Contact, int64, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage < 1 {
		perPage = 50
	}
	if perPage > 5000 {
		perPage = 5000
	}

	orderBy := "created_at"
	if allowedOrderBy[opts.OrderBy] {
		orderBy = opts.OrderBy
	}
	order := "DESC"
	if strings.EqualFold(opts.Order, "asc") {
		order = "ASC"
	}

	var total int64
	if err := r.filteredQuery(dashboardID, opts).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contacts []models.Contact
	err := r.filteredQuery(dashboardID, opts).
		Order(orderBy + " " + order).
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&contacts).Error
	return contacts, total, err
}

func (r *contactRepository) DistinctDates(dashboardID uint, tab, dateField string) ([]DateCount, error) {
	col := "workshop_date"
	if allowedDateFields[dateField] {
		col = dateField
	}
	statuses, ok := TabStatusMap[tab]
	if !ok {
		statuses = TabStatusMap["current_registrations"]
	}

	var results []DateCount
	err := r.db.Model(&models.Contact{}).
		Select(fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m-%%d') AS date_value, COUNT(*) AS count", col)).
		Where("dashboard_id = ? AND contact_status IN ? AND "+col+" IS NOT NULL", dashboardID, statuses).
		Group(col).
		Order(col + " DESC").
		Scan(&results).Error
	return results, err
}

func (r *contactRepository) Summary(dashboardID uint, opts ContactListOptions) (*ContactSummary, error) {
	summary := &ContactSummary{Breakdowns: map[string][]OptionCount{}}

	if err := r.filteredQuery(dashboardID, opts).Count(&summary.Total).Error; err != nil {
		return nil, err
	}

	switch opts.Tab {
	case "current_registrations", "":
		var guests int64
		err := r.filteredQuery(dashboardID, opts).
			Where("spouse_name IS NOT NULL AND spouse_name != ''").
			Count(&guests).Error
		if err != nil {
			return nil, err
		}
		summary.TotalGuests = &guests

		spouseCond := "spouse_name IS NOT NULL AND spouse_name != ''"
		cols := []struct {
			column string
			extra  string
		}{
			{"food_option_fed", ""},
			{"side_option_fed", ""},
			{"food_option_spouse", spouseCond},
			{"side_option_spouse", spouseCond},
		}
		for _, c := range cols {
			if err := r.breakdown(dashboardID, opts, c.column, c.extra, summary); err != nil {
				return nil, err
			}
		}
	case "attended_report", "attended_other":
		for _, col := range []string{"meet_for_report", "retirement_system", "rate_material"} {
			if err := r.breakdown(dashboardID, opts, col, "", summary); err != nil {
				return nil, err
			}
		}
	case "fed_request":
		for _, col := range []string{"retirement_system", "time_frame_for_retirement", "meet_for_report"} {
			if err := r.breakdown(dashboardID, opts, col, "", summary); err != nil {
				return nil, err
			}
		}
	}

	return summary, nil
}

func (r *contactRepository) breakdown(dashboardID uint, opts ContactListOptions, column, extraCond string, summary *ContactSummary) error {
	if !identRe.MatchString(column) {
		return fmt.Errorf("breakdown: invalid column name %q", column)
	}

	q := r.filteredQuery(dashboardID, opts).
		Select(column + " AS option_name, COUNT(*) AS count").
		Where(column + " IS NOT NULL AND " + column + " != ''")
	if extraCond != "" {
		q = q.Where(extraCond)
	}

	var results []OptionCount
	if err := q.Group(column).Order("count DESC").Scan(&results).Error; err != nil {
		return err
	}
	summary.Breakdowns[column] = results
	return nil
}

// UpdateAdvisorFields mutates only the operator triage columns; the webhook
// pipeline never writes these.
func (r *contactRepository) UpdateAdvisorFields(dashboardID, id uint, notes, status *string) error {
	updates := map[string]interface{}{}
	if notes != nil {
		updates["advisor_notes"] = *notes
	}
	if status != nil {
		updates["advisor_status"] = *status
	}
	if len(updates) == 0 {
		return nil
	}

	res := r.db.Model(&models.Contact{}).
		Where("id = ? AND dashboard_id = ?", id, dashboardID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *contactRepository) Delete(dashboardID, id uint) error {
	res := r.db.Where("id = ? AND dashboard_id = ?", id, dashboardID).Delete(&models.Contact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
