package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/profeds/advisor-dashboard/app/models"
)

// DashboardRepository defines the interface for tenant-related database operations
type DashboardRepository interface {
	Create(dashboard *models.Dashboard) error
	GetByID(id uint) (*models.Dashboard, error)
	GetByAdvisorCode(code string) (*models.Dashboard, error)
	List() ([]DashboardWithCounts, error)
	Update(dashboard *models.Dashboard) error
	Delete(id uint) error
}

// ContactRepository defines the interface for contact persistence. Upsert and
// Cancel implement the webhook state machine's storage contract; the rest
// serve the operator API.
type ContactRepository interface {
	Upsert(dashboardID uint, status string, fields map[string]*string) error
	Cancel(dashboardID uint, contactID string, extra map[string]*string) error
	GetByExternalID(dashboardID uint, contactID string) (*models.Contact, error)
	List(dashboardID uint, opts ContactListOptions) ([]models.Contact, int64, error)
	DistinctDates(dashboardID uint, tab, dateField string) ([]DateCount, error)
	Summary(dashboardID uint, opts ContactListOptions) (*ContactSummary, error)
	UpdateAdvisorFields(dashboardID, id uint, notes, status *string) error
	Delete(dashboardID, id uint) error
}

// WebhookLogRepository defines the interface for audit log operations
type WebhookLogRepository interface {
	Create(entry *models.WebhookLog) error
	GetByID(id uint) (*models.WebhookLog, error)
	List(opts WebhookLogListOptions) ([]models.WebhookLog, int64, error)
	ErrorCodeCounts(dashboardID *uint) ([]CodeCount, error)
	DeleteOlderThan(days int) (int64, error)
	Clear(dashboardID *uint) error
	CountRecentFailures(window time.Duration) (int64, error)
	RecentFailureSummary(window time.Duration) ([]CodeCount, error)
}

// SettingRepository defines typed access to runtime settings
type SettingRepository interface {
	GetString(key, def string) (string, error)
	GetBool(key string, def bool) (bool, error)
	GetInt(key string, def int) (int, error)
	SetString(key, value string) error
	SetBool(key string, value bool) error
	SetInt(key string, value int) error
	DeleteKey(key string) error
}

// TabStatusMap translates a dashboard tab to the contact statuses it shows.
var TabStatusMap = map[string][]string{
	"current_registrations": {models.ContactStatusRegistered},
	"attended_report":       {models.ContactStatusAttendedReport},
	"attended_other":        {models.ContactStatusAttendedOther},
	"fed_request":           {models.ContactStatusFedRequest},
}

// ContactListOptions carries listing/filtering parameters for contacts.
type ContactListOptions struct {
	Tab        string
	Page       int
	PerPage    int
	OrderBy    string
	Order      string
	Search     string
	DateFilter string
	DateField  string
}

// WebhookLogListOptions carries listing/filtering parameters for audit logs.
type WebhookLogListOptions struct {
	DashboardID  *uint
	Page         int
	PerPage      int
	OrderBy      string
	Order        string
	StatusFilter string // "success", "error", or a concrete error code
	DateFrom     string
	DateTo       string
	Search       string
}

// DashboardWithCounts is a dashboard row plus per-tab contact counts.
type DashboardWithCounts struct {
	models.Dashboard
	ContactCount            int64 `json:"contact_count"`
	TabCurrentRegistrations int64 `json:"tab_current_registrations"`
	TabAttendedReport       int64 `json:"tab_attended_report"`
	TabAttendedOther        int64 `json:"tab_attended_other"`
	TabFedRequest           int64 `json:"tab_fed_request"`
}

// DateCount is one distinct date with its row count (filter dropdowns).
type DateCount struct {
	DateValue string `json:"date_value"`
	Count     int64  `json:"count"`
}

// CodeCount is one error code with its occurrence count.
type CodeCount struct {
	ErrorCode string `json:"error_code"`
	Count     int64  `json:"count"`
}

// OptionCount is one distinct column value with its row count.
type OptionCount struct {
	OptionName string `json:"option_name"`
	Count      int64  `json:"count"`
}

// ContactSummary aggregates a tab's contacts for the operator header cards.
type ContactSummary struct {
	Total       int64                    `json:"total"`
	TotalGuests *int64                   `json:"total_guests,omitempty"`
	Breakdowns  map[string][]OptionCount `json:"breakdowns,omitempty"`
}

// Repositories struct holds all repository instances
type Repositories struct {
	Dashboard  DashboardRepository
	Contact    ContactRepository
	WebhookLog WebhookLogRepository
	Setting    SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Dashboard:  NewDashboardRepository(db),
		Contact:    NewContactRepository(db),
		WebhookLog: NewWebhookLogRepository(db),
		Setting:    NewSettingRepository(db),
	}
}
