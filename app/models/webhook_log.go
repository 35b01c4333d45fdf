package models

import "time"

// WebhookLog is an immutable audit record of one inbound webhook attempt,
// success or failure. The parsed_* columns are derived from the raw body on
// a best-effort basis so failed requests remain searchable.
type WebhookLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	DashboardID     *uint     `gorm:"index" json:"dashboard_id"`
	WebhookKey      string    `gorm:"size:64;not null" json:"webhook_key"`
	RequestBody     string    `gorm:"type:longtext" json:"request_body,omitempty"`
	ParsedTab       *string   `gorm:"size:50" json:"parsed_tab"`
	ParsedAction    *string   `gorm:"size:20" json:"parsed_action"`
	ParsedContactID *string   `gorm:"size:100" json:"parsed_contact_id"`
	StatusCode      int       `gorm:"not null;default:200;index" json:"status_code"`
	ErrorCode       *string   `gorm:"size:50;index" json:"error_code"`
	ErrorMessage    *string   `gorm:"type:text" json:"error_message"`
	ResponseBody    string    `gorm:"type:text" json:"response_body,omitempty"`
	IPAddress       string    `gorm:"size:45" json:"ip_address"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
