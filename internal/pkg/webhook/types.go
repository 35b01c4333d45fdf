// Package webhook implements the inbound HighLevel webhook pipeline: rate
// limiting, key verification, payload normalization, tenant resolution and
// the contact state machine, plus the audit trail around all of it.
package webhook

import (
	"encoding/json"

	"github.com/profeds/advisor-dashboard/app/models"
)

// Error codes returned to the sender. Each code has a fixed HTTP status.
const (
	ErrRateLimited        = "rate_limited"
	ErrInvalidKey         = "invalid_key"
	ErrEmptyPayload       = "empty_payload"
	ErrInvalidPayload     = "invalid_payload"
	ErrMissingAdvisorCode = "missing_advisor_code"
	ErrUnknownAdvisorCode = "unknown_advisor_code"
	ErrInvalidAction      = "invalid_action"
	ErrMissingContactID   = "missing_contact_id"
	ErrNotFound           = "not_found"
	ErrDBError            = "db_error"
)

var errorStatus = map[string]int{
	ErrRateLimited:        429,
	ErrInvalidKey:         404,
	ErrEmptyPayload:       400,
	ErrInvalidPayload:     400,
	ErrMissingAdvisorCode: 400,
	ErrUnknownAdvisorCode: 404,
	ErrInvalidAction:      400,
	ErrMissingContactID:   400,
	ErrNotFound:           404,
	ErrDBError:            500,
}

// ActionStatusMap translates a webhook action to the contact status it sets.
var ActionStatusMap = map[string]string{
	"register":       models.ContactStatusRegistered,
	"cancel":         models.ContactStatusCancelled,
	"attended":       models.ContactStatusAttendedReport,
	"attended_other": models.ContactStatusAttendedOther,
	"fed_request":    models.ContactStatusFedRequest,
}

// actionTabs maps an action onto the dashboard tab its contacts appear in.
// Cancelled contacts are not shown on any tab.
var actionTabs = map[string]string{
	"register":       "current_registrations",
	"attended":       "attended_report",
	"attended_other": "attended_other",
	"fed_request":    "fed_request",
}

// Request is one inbound webhook delivery as received off the wire.
type Request struct {
	Key         string
	SourceIP    string
	RawBody     []byte
	ContentType string
}

// Result is the pipeline outcome. ErrorCode is empty on success.
type Result struct {
	HTTPStatus    int
	ErrorCode     string
	Message       string
	Action        string
	ContactStatus string
	ContactID     string
	DashboardID   *uint
}

// Success reports whether the delivery was fully processed.
func (r Result) Success() bool { return r.ErrorCode == "" }

// Body renders the JSON response the sender receives; the audit log stores
// the same bytes.
func (r Result) Body() map[string]any {
	if r.Success() {
		return map[string]any{
			"success":        true,
			"action":         r.Action,
			"contact_status": r.ContactStatus,
			"contact_id":     r.ContactID,
		}
	}
	return map[string]any{
		"success": false,
		"code":    r.ErrorCode,
		"message": r.Message,
	}
}

func (r Result) bodyJSON() string {
	b, err := json.Marshal(r.Body())
	if err != nil {
		return ""
	}
	return string(b)
}

func failure(code, message string) Result {
	return Result{HTTPStatus: errorStatus[code], ErrorCode: code, Message: message}
}
