package webhook

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/profeds/advisor-dashboard/app/models"
	"github.com/profeds/advisor-dashboard/internal/pkg/payload"
)

// Rate limits for inbound deliveries. Both use a fixed one-minute window:
// per-IP first, then a shared ceiling across all senders of the key.
const (
	IPLimit     = 30
	SharedLimit = 120
	LimitWindow = time.Minute
)

// Limiter is the slice of the rate limiter the pipeline needs.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// DashboardResolver resolves an advisor code to its tenant dashboard.
type DashboardResolver interface {
	GetByAdvisorCode(code string) (*models.Dashboard, error)
}

// ContactStore is the persistence contract of the contact state machine.
type ContactStore interface {
	Upsert(dashboardID uint, status string, fields map[string]*string) error
	Cancel(dashboardID uint, contactID string, extra map[string]*string) error
}

// AuditLog records processed deliveries.
type AuditLog interface {
	Create(entry *models.WebhookLog) error
}

// Settings provides the runtime configuration the pipeline reads per request.
type Settings interface {
	GetString(key, def string) (string, error)
	GetBool(key string, def bool) (bool, error)
}

// Processor runs the webhook pipeline. All collaborators are injected so the
// pipeline is testable without Redis or MySQL.
type Processor struct {
	Limiter    Limiter
	Dashboards DashboardResolver
	Contacts   ContactStore
	Logs       AuditLog
	Settings   Settings
}

// Handle processes one delivery and, when audit logging is enabled, records
// it. The audit entry derives its parsed_* metadata from the raw body
// independently of the pipeline, so rejected requests stay searchable too.
func (p *Processor) Handle(ctx context.Context, req Request) Result {
	result := p.process(ctx, req)
	p.audit(req, result)
	return result
}

// process is the fail-fast stage sequence. Each stage either rejects the
// delivery with its fixed error code or hands a narrower request to the next.
func (p *Processor) process(ctx context.Context, req Request) Result {
	if !p.allow(ctx, "webhook:ip:"+req.SourceIP, IPLimit) {
		return failure(ErrRateLimited, "Too many requests from this IP. Please retry later.")
	}

	stored, err := p.Settings.GetString(models.SettingSharedWebhookKey, "")
	if err != nil {
		return failure(ErrDBError, "Could not verify the webhook key.")
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(req.Key)) != 1 {
		return failure(ErrInvalidKey, "Unknown webhook key.")
	}

	if !p.allow(ctx, "webhook:shared", SharedLimit) {
		return failure(ErrRateLimited, "The webhook endpoint is receiving too many requests. Please retry later.")
	}

	flat := payload.Parse(req.RawBody, req.ContentType)
	if flat == nil {
		return failure(ErrInvalidPayload, "Request body is neither valid JSON nor form data.")
	}

	advisorCode := payload.GetString(flat, "advisor_code", "advisorCode")
	if advisorCode == "" {
		return failure(ErrMissingAdvisorCode, "Payload does not contain an advisor_code.")
	}
	dashboard, err := p.Dashboards.GetByAdvisorCode(advisorCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return failure(ErrUnknownAdvisorCode, "No dashboard is configured for advisor_code "+advisorCode+".")
	}
	if err != nil {
		return failure(ErrDBError, "Could not resolve the dashboard.")
	}
	if !dashboard.Active {
		return failure(ErrUnknownAdvisorCode, "The dashboard for advisor_code "+advisorCode+" is inactive.")
	}

	action := payload.GetString(flat, "action")
	status, ok := ActionStatusMap[action]
	if !ok {
		return failure(ErrInvalidAction, "Unsupported action "+action+".")
	}

	fields := payload.MapFields(flat)
	// The routing id is the mapped value, so the alias priority that decides
	// what gets persisted also decides whether the request proceeds.
	var contactID string
	if v := fields["contact_id"]; v != nil {
		contactID = *v
	}
	if contactID == "" {
		return failure(ErrMissingContactID, "Payload does not contain a contact_id.")
	}
	if len(fields) == 0 {
		return failure(ErrEmptyPayload, "No mappable fields survived normalization.")
	}

	if action == "cancel" {
		err = p.Contacts.Cancel(dashboard.ID, contactID, fields)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failure(ErrNotFound, "Contact "+contactID+" does not exist and cannot be cancelled.")
		}
	} else {
		err = p.Contacts.Upsert(dashboard.ID, status, fields)
	}
	if err != nil {
		return failure(ErrDBError, "Could not store the contact.")
	}

	dashboardID := dashboard.ID
	return Result{
		HTTPStatus:    200,
		Action:        action,
		ContactStatus: status,
		ContactID:     contactID,
		DashboardID:   &dashboardID,
	}
}

// allow asks the limiter, failing open: a broken limiter backend must not
// take down ingestion.
func (p *Processor) allow(ctx context.Context, key string, limit int) bool {
	ok, err := p.Limiter.Allow(ctx, key, limit, LimitWindow)
	if err != nil {
		log.Printf("[WEBHOOK] rate limiter unavailable, allowing request: %v", err)
		return true
	}
	return ok
}

func (p *Processor) audit(req Request, result Result) {
	enabled, err := p.Settings.GetBool(models.SettingWebhookLogging, false)
	if err != nil {
		log.Printf("[WEBHOOK] could not read logging setting: %v", err)
		return
	}
	if !enabled {
		return
	}

	meta := extractMeta(req.RawBody)

	entry := &models.WebhookLog{
		DashboardID:     result.DashboardID,
		WebhookKey:      req.Key,
		RequestBody:     string(req.RawBody),
		ParsedTab:       meta.Tab,
		ParsedAction:    meta.Action,
		ParsedContactID: meta.ContactID,
		StatusCode:      result.HTTPStatus,
		ResponseBody:    result.bodyJSON(),
		IPAddress:       req.SourceIP,
	}
	if result.DashboardID == nil && meta.AdvisorCode != nil {
		if d, derr := p.Dashboards.GetByAdvisorCode(*meta.AdvisorCode); derr == nil {
			id := d.ID
			entry.DashboardID = &id
		}
	}
	if !result.Success() {
		code := result.ErrorCode
		msg := result.Message
		entry.ErrorCode = &code
		entry.ErrorMessage = &msg
	}

	if err := p.Logs.Create(entry); err != nil {
		log.Printf("[WEBHOOK] could not write audit log entry: %v", err)
	}
}
