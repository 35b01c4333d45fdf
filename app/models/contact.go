package models

import "time"

// Contact statuses driven by inbound webhook actions.
const (
	ContactStatusRegistered     = "registered"
	ContactStatusCancelled      = "cancelled"
	ContactStatusAttendedReport = "attended_report"
	ContactStatusAttendedOther  = "attended_other"
	ContactStatusFedRequest     = "fed_request"
)

// AdvisorStatuses is the allowlist for the operator-maintained triage field.
// The empty string clears it.
var AdvisorStatuses = []string{"", "new", "contacted", "scheduled", "completed", "not_interested"}

// Contact is one workshop registrant scoped to a dashboard. A row is unique
// per (dashboard_id, contact_id) where contact_id is the CRM's external id.
// All data columns are nullable: the webhook only writes what a payload
// provides, and AdvisorStatus/AdvisorNotes are operator-only fields that
// inbound writes never touch.
type Contact struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	DashboardID uint   `gorm:"not null;uniqueIndex:ux_contacts_dashboard_contact,priority:1" json:"dashboard_id"`
	ContactID   string `gorm:"size:100;not null;uniqueIndex:ux_contacts_dashboard_contact,priority:2" json:"contact_id"`

	ContactStatus  string  `gorm:"size:50;not null;index" json:"contact_status"`
	PreviousStatus *string `gorm:"size:50" json:"previous_status"`

	FirstName  *string `gorm:"size:255" json:"first_name"`
	LastName   *string `gorm:"size:255" json:"last_name"`
	SpouseName *string `gorm:"size:255" json:"spouse_name"`

	WorkshopDate     *time.Time `gorm:"type:date" json:"workshop_date"`
	FoodOptionFed    *string    `gorm:"size:255" json:"food_option_fed"`
	SideOptionFed    *string    `gorm:"size:255" json:"side_option_fed"`
	FoodOptionSpouse *string    `gorm:"size:255" json:"food_option_spouse"`
	SideOptionSpouse *string    `gorm:"size:255" json:"side_option_spouse"`
	RSVPConfirmed    *string    `gorm:"column:rsvp_confirmed;size:100" json:"rsvp_confirmed"`

	City            *string `gorm:"size:255" json:"city"`
	State           *string `gorm:"size:255" json:"state"`
	PostalCode      *string `gorm:"size:20" json:"postal_code"`
	HomeAddress     *string `gorm:"size:500" json:"home_address"`
	OtherAddress    *string `gorm:"size:500" json:"other_address"`
	OtherCity       *string `gorm:"size:255" json:"other_city"`
	OtherState      *string `gorm:"size:255" json:"other_state"`
	OtherPostalCode *string `gorm:"size:20" json:"other_postal_code"`

	SpecialProvisions         *string    `gorm:"size:255" json:"special_provisions"`
	RetirementSystem          *string    `gorm:"size:255" json:"retirement_system"`
	RegistrationFormCompleted *time.Time `gorm:"type:date" json:"registration_form_completed"`
	MemberWorkshopCode        *string    `gorm:"size:100" json:"member_workshop_code"`

	WorkPhone     *string `gorm:"size:50" json:"work_phone"`
	CellPhone     *string `gorm:"size:50" json:"cell_phone"`
	OldPhone      *string `gorm:"size:50" json:"old_phone"`
	WorkEmail     *string `gorm:"size:255" json:"work_email"`
	PersonalEmail *string `gorm:"size:255" json:"personal_email"`
	OtherEmail    *string `gorm:"size:255" json:"other_email"`
	BestEmail     *string `gorm:"size:255" json:"best_email"`

	Agency                 *string    `gorm:"size:255" json:"agency"`
	TimeFrameForRetirement *string    `gorm:"size:255" json:"time_frame_for_retirement"`
	CommentOnRegistration  *string    `gorm:"type:text" json:"comment_on_registration"`
	TrainingAction         *string    `gorm:"type:text" json:"training_action"`
	TellOthers             *string    `gorm:"type:text" json:"tell_others"`
	AdditionalComments     *string    `gorm:"type:text" json:"additional_comments"`
	RateMaterial           *string    `gorm:"size:100" json:"rate_material"`
	RateVirtualEnvironment *string    `gorm:"size:100" json:"rate_virtual_environment"`
	MeetForReport          *string    `gorm:"size:10" json:"meet_for_report"`
	DateOfLeadRequest      *time.Time `gorm:"type:date" json:"date_of_lead_request"`
	Status                 *string    `gorm:"size:100" json:"status"`

	AdvisorStatus *string `gorm:"size:50" json:"advisor_status"`
	AdvisorNotes  *string `gorm:"type:text" json:"advisor_notes"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsValidAdvisorStatus reports whether s is in the operator triage allowlist.
func IsValidAdvisorStatus(s string) bool {
	for _, v := range AdvisorStatuses {
		if v == s {
			return true
		}
	}
	return false
}
