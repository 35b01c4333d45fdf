package models

import "time"

// Setting represents one runtime configuration row. Values are stored as
// strings and interpreted through the typed accessors on SettingRepository.
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Setting keys used by the webhook pipeline and its maintenance workers.
const (
	SettingSharedWebhookKey    = "shared_webhook_key"
	SettingWebhookLogging      = "webhook_logging_enabled"
	SettingLogRetentionDays    = "webhook_log_retention_days"
	SettingAlertsEnabled       = "failure_alerts_enabled"
	SettingAlertThreshold      = "failure_alert_threshold"
	SettingAlertWindowMinutes  = "failure_alert_window_minutes"
	SettingAlertCooldownMin    = "failure_alert_cooldown_minutes"
	SettingAlertNotifyURL      = "failure_alert_notify_url"
	SettingAlertLastNotifiedAt = "failure_alert_last_notified_at"
)

// Defaults applied when a setting row is absent.
const (
	DefaultLogRetentionDays     = 90
	DefaultAlertThreshold       = 5
	DefaultAlertWindowMinutes   = 15
	DefaultAlertCooldownMinutes = 60
)
