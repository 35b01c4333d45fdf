package payload

import (
	"regexp"
	"strings"
	"time"
)

type alias struct {
	key    string
	column string
}

// fieldAliases maps every known upstream spelling onto its canonical column.
// Order matters: aliases are applied top to bottom and the first one to fill
// a column wins, so the snake_case names must stay listed before their
// camelCase and CRM-label variants.
var fieldAliases = []alias{
	// snake_case and camelCase field names.
	{"contact_id", "contact_id"},
	{"contactId", "contact_id"},
	{"first_name", "first_name"},
	{"firstName", "first_name"},
	{"last_name", "last_name"},
	{"lastName", "last_name"},
	{"spouse_name", "spouse_name"},
	{"spouseName", "spouse_name"},
	{"workshop_date", "workshop_date"},
	{"workshopDate", "workshop_date"},
	{"food_option_fed", "food_option_fed"},
	{"side_option_fed", "side_option_fed"},
	{"food_option_spouse", "food_option_spouse"},
	{"side_option_spouse", "side_option_spouse"},
	{"rsvp_confirmed", "rsvp_confirmed"},
	{"city", "city"},
	{"state", "state"},
	{"postal_code", "postal_code"},
	{"postalCode", "postal_code"},
	{"home_address", "home_address"},
	{"homeAddress", "home_address"},
	{"other_address", "other_address"},
	{"other_city", "other_city"},
	{"other_state", "other_state"},
	{"other_postal_code", "other_postal_code"},
	{"special_provisions", "special_provisions"},
	{"retirement_system", "retirement_system"},
	{"registration_form_completed", "registration_form_completed"},
	{"member_workshop_code", "member_workshop_code"},
	{"work_phone", "work_phone"},
	{"cell_phone", "cell_phone"},
	{"cellPhone", "cell_phone"},
	{"old_phone", "old_phone"},
	{"work_email", "work_email"},
	{"workEmail", "work_email"},
	{"personal_email", "personal_email"},
	{"personalEmail", "personal_email"},
	{"other_email", "other_email"},
	{"best_email", "best_email"},
	{"agency", "agency"},
	{"time_frame_for_retirement", "time_frame_for_retirement"},
	{"comment_on_registration", "comment_on_registration"},
	{"training_action", "training_action"},
	{"tell_others", "tell_others"},
	{"additional_comments", "additional_comments"},
	{"rate_material", "rate_material"},
	{"rate_virtual_environment", "rate_virtual_environment"},
	{"meet_for_report", "meet_for_report"},
	{"date_of_lead_request", "date_of_lead_request"},
	{"status", "status"},

	// HighLevel CRM human-readable field names.
	{"Workshop Date", "workshop_date"},
	{"Workshop Appointment Date", "workshop_date"},
	{"Spouse Name", "spouse_name"},
	{"Food Option Selected", "food_option_fed"},
	{"Food Option Selected for Spouse", "food_option_spouse"},
	{"Food Side Option Selected", "side_option_fed"},
	{"Food Side Option Selected for Spouse", "side_option_spouse"},
	{"Lunch Options (Fed)", "food_option_fed"},
	{"Lunch Options (Spouse)", "food_option_spouse"},
	{"Lunch Side Option Selected (Fed)", "side_option_fed"},
	{"Lunch Side Option Selected (Spouse)", "side_option_spouse"},
	{"Food Side Options (Fed)", "side_option_fed"},
	{"Food Side Options (Spouse)", "side_option_spouse"},
	{"RSVP - Confirmed", "rsvp_confirmed"},
	{"Department/Agency", "agency"},
	{"Work Phone", "work_phone"},
	{"Work Email", "work_email"},
	{"Personal Email", "personal_email"},
	{"Best Email", "best_email"},
	{"Cell Phone", "cell_phone"},
	{"Special Provisions", "special_provisions"},
	{"Retirement System", "retirement_system"},
	{"Timeline for retirement", "time_frame_for_retirement"},
	{"FRIW Webform Completed", "registration_form_completed"},
	{"Comments or Questions", "comment_on_registration"},
	{"Additional Comments on Evaluation", "additional_comments"},
	{"Member Workshop Code (2-4 letters)", "member_workshop_code"},
	{"Workshop Status", "status"},
}

// DateColumns hold DATE values and get format sanitation.
var DateColumns = map[string]bool{
	"workshop_date":               true,
	"registration_form_completed": true,
	"date_of_lead_request":        true,
}

// ReservedKeys carry routing/control data, never contact data.
var ReservedKeys = map[string]bool{
	"action":       true,
	"advisor_code": true,
	"advisorCode":  true,
}

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Layouts tried for non-canonical date text, roughly in the order HighLevel
// workflows have been seen to emit them.
var dateLayouts = []string{
	"2006-1-2",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// MapFields applies the alias table to a flattened payload. The result keys
// are canonical columns; a nil value means the field was provided but
// normalizes to NULL (explicit null, empty string, or an unparseable date).
// Keys not in the alias table, reserved control keys and non-scalar values
// are dropped.
func MapFields(flat map[string]Value) map[string]*string {
	mapped := make(map[string]*string)

	for _, a := range fieldAliases {
		v, ok := flat[a.key]
		if !ok || ReservedKeys[a.key] {
			continue
		}
		if v.Kind != KindString && v.Kind != KindNull {
			continue
		}
		if _, done := mapped[a.column]; done {
			// First applied alias wins.
			continue
		}
		mapped[a.column] = SanitizeValue(a.column, v)
	}

	return mapped
}

// SanitizeValue normalizes one value for its destination column. Empty and
// null inputs become NULL. Date columns must end up as YYYY-MM-DD; values
// that cannot be coerced store NULL rather than failing the request.
func SanitizeValue(column string, v Value) *string {
	if v.Kind == KindNull {
		return nil
	}

	s := strings.TrimSpace(v.Str)
	if s == "" {
		return nil
	}

	if DateColumns[column] {
		return sanitizeDate(s)
	}
	return &s
}

func sanitizeDate(s string) *string {
	if isoDateRe.MatchString(s) {
		return &s
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			formatted := t.Format("2006-01-02")
			return &formatted
		}
	}
	return nil
}
