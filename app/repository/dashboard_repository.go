package repository

import (
	"gorm.io/gorm"

	"github.com/profeds/advisor-dashboard/app/models"
)

// dashboardRepository implements the DashboardRepository interface
type dashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository creates a new dashboard repository instance
func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) Create(dashboard *models.Dashboard) error {
	return r.db.Create(dashboard).Error
}

func (r *dashboardRepository) GetByID(id uint) (*models.Dashboard, error) {
	var dashboard models.Dashboard
	if err := r.db.First(&dashboard, id).Error; err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// GetByAdvisorCode resolves the routing code case-insensitively.
func (r *dashboardRepository) GetByAdvisorCode(code string) (*models.Dashboard, error) {
	var dashboard models.Dashboard
	err := r.db.Where("LOWER(advisor_code) = LOWER(?)", code).First(&dashboard).Error
	if err != nil {
		return nil, err
	}
	return &dashboard, nil
}

func (r *dashboardRepository) List() ([]DashboardWithCounts, error) {
	var results []DashboardWithCounts
	err := r.db.Model(&models.Dashboard{}).
		Select(`dashboards.*,
			( SELECT COUNT(*) FROM contacts c WHERE c.dashboard_id = dashboards.id AND c.contact_status != ? ) AS contact_count,
			( SELECT COUNT(*) FROM contacts c WHERE c.dashboard_id = dashboards.id AND c.contact_status = ? ) AS tab_current_registrations,
			( SELECT COUNT(*) FROM contacts c WHERE c.dashboard_id = dashboards.id AND c.contact_status = ? ) AS tab_attended_report,
			( SELECT COUNT(*) FROM contacts c WHERE c.dashboard_id = dashboards.id AND c.contact_status = ? ) AS tab_attended_other,
			( SELECT COUNT(*) FROM contacts c WHERE c.dashboard_id = dashboards.id AND c.contact_status = ? ) AS tab_fed_request`,
			models.ContactStatusCancelled,
			models.ContactStatusRegistered,
			models.ContactStatusAttendedReport,
			models.ContactStatusAttendedOther,
			models.ContactStatusFedRequest).
		Order("created_at DESC").
		Scan(&results).Error
	return results, err
}

func (r *dashboardRepository) Update(dashboard *models.Dashboard) error {
	return r.db.Save(dashboard).Error
}

// Delete removes a dashboard and cascades to its contacts and audit logs.
func (r *dashboardRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dashboard_id = ?", id).Delete(&models.WebhookLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("dashboard_id = ?", id).Delete(&models.Contact{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Dashboard{}, id).Error
	})
}
