package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/profeds/advisor-dashboard/app/models"
)

// alertExcludedCodes are failure codes that do not indicate a delivery
// problem on our side: rate limiting is intentional back-pressure and an
// invalid key is a misconfigured sender, not a broken pipeline.
var alertExcludedCodes = []string{"rate_limited", "invalid_key"}

var allowedLogOrderBy = map[string]bool{
	"created_at":        true,
	"status_code":       true,
	"error_code":        true,
	"parsed_tab":        true,
	"parsed_action":     true,
	"parsed_contact_id": true,
	"ip_address":        true,
}

// webhookLogRepository implements the WebhookLogRepository interface
type webhookLogRepository struct {
	db *gorm.DB
}

// NewWebhookLogRepository creates a new webhook log repository instance
func NewWebhookLogRepository(db *gorm.DB) WebhookLogRepository {
	return &webhookLogRepository{db: db}
}

func (r *webhookLogRepository) Create(entry *models.WebhookLog) error {
	return r.db.Create(entry).Error
}

func (r *webhookLogRepository) GetByID(id uint) (*models.WebhookLog, error) {
	var entry models.WebhookLog
	if err := r.db.First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *webhookLogRepository) filteredQuery(opts WebhookLogListOptions) *gorm.DB {
	q := r.db.Model(&models.WebhookLog{})

	if opts.DashboardID != nil {
		q = q.Where("dashboard_id = ?", *opts.DashboardID)
	}

	switch opts.StatusFilter {
	case "":
	case "success":
		q = q.Where("error_code IS NULL")
	case "error":
		q = q.Where("error_code IS NOT NULL")
	default:
		q = q.Where("error_code = ?", opts.StatusFilter)
	}

	if opts.DateFrom != "" {
		q = q.Where("created_at >= ?", opts.DateFrom+" 00:00:00")
	}
	if opts.DateTo != "" {
		q = q.Where("created_at <= ?", opts.DateTo+" 23:59:59")
	}
	if opts.Search != "" {
		like := "%" + opts.Search + "%"
		q = q.Where("error_message LIKE ? OR parsed_contact_id LIKE ? OR ip_address LIKE ?", like, like, like)
	}
	return q
}

// List returns audit entries without their request/response bodies; those are
// fetched per-entry via GetByID to keep list responses small.
func (r *webhookLogRepository) List(opts WebhookLogListOptions) ([]models.WebhookLog, int64, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage < 1 {
		perPage = 50
	}
	if perPage > 500 {
		perPage = 500
	}

	orderBy := "created_at"
	if allowedLogOrderBy[opts.OrderBy] {
		orderBy = opts.OrderBy
	}
	order := "DESC"
	if strings.EqualFold(opts.Order, "asc") {
		order = "ASC"
	}

	var total int64
	if err := r.filteredQuery(opts).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.WebhookLog
	err := r.filteredQuery(opts).
		Omit("request_body", "response_body").
		Order(orderBy + " " + order).
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&entries).Error
	return entries, total, err
}

func (r *webhookLogRepository) ErrorCodeCounts(dashboardID *uint) ([]CodeCount, error) {
	q := r.db.Model(&models.WebhookLog{}).
		Select("error_code, COUNT(*) AS count").
		Where("error_code IS NOT NULL")
	if dashboardID != nil {
		q = q.Where("dashboard_id = ?", *dashboardID)
	}

	var results []CodeCount
	err := q.Group("error_code").Order("count DESC").Scan(&results).Error
	return results, err
}

func (r *webhookLogRepository) DeleteOlderThan(days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	res := r.db.Where("created_at < ?", cutoff).Delete(&models.WebhookLog{})
	return res.RowsAffected, res.Error
}

func (r *webhookLogRepository) Clear(dashboardID *uint) error {
	q := r.db
	if dashboardID != nil {
		q = q.Where("dashboard_id = ?", *dashboardID)
	} else {
		q = q.Where("1 = 1")
	}
	return q.Delete(&models.WebhookLog{}).Error
}

func (r *webhookLogRepository) recentFailureQuery(window time.Duration) *gorm.DB {
	since := time.Now().Add(-window)
	return r.db.Model(&models.WebhookLog{}).
		Where("created_at >= ? AND error_code IS NOT NULL AND error_code NOT IN ?", since, alertExcludedCodes)
}

func (r *webhookLogRepository) CountRecentFailures(window time.Duration) (int64, error) {
	var count int64
	err := r.recentFailureQuery(window).Count(&count).Error
	return count, err
}

// RecentFailureSummary groups recent failures by error code for the alert
// notification body.
func (r *webhookLogRepository) RecentFailureSummary(window time.Duration) ([]CodeCount, error) {
	var results []CodeCount
	err := r.recentFailureQuery(window).
		Select("error_code, COUNT(*) AS count").
		Group("error_code").
		Order("count DESC").
		Scan(&results).Error
	return results, err
}
