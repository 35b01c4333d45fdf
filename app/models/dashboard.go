package models

import "time"

// Dashboard is a tenant: one advisor's isolated contact list. Inbound
// webhooks address a dashboard through its advisor code.
type Dashboard struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name" validate:"required,min=1,max=255"`
	AdvisorCode *string   `gorm:"size:100;uniqueIndex" json:"advisor_code" validate:"omitempty,min=2,max=100"`
	Active      bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
