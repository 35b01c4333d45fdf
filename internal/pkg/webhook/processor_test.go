package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/profeds/advisor-dashboard/app/models"
)

const testKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type fakeLimiter struct {
	denied map[string]bool
	err    error
	calls  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	f.calls = append(f.calls, key)
	if f.err != nil {
		return false, f.err
	}
	return !f.denied[key], nil
}

type fakeResolver struct {
	dashboards map[string]*models.Dashboard
}

func (f *fakeResolver) GetByAdvisorCode(code string) (*models.Dashboard, error) {
	for c, d := range f.dashboards {
		if strings.EqualFold(c, code) {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type storedContact struct {
	status   string
	previous *string
	fields   map[string]*string
}

type fakeContacts struct {
	rows map[string]*storedContact
	err  error
}

func newFakeContacts() *fakeContacts {
	return &fakeContacts{rows: map[string]*storedContact{}}
}

func (f *fakeContacts) key(dashboardID uint, contactID string) string {
	return fmt.Sprintf("%d/%s", dashboardID, contactID)
}

func (f *fakeContacts) Upsert(dashboardID uint, status string, fields map[string]*string) error {
	if f.err != nil {
		return f.err
	}
	var contactID string
	if v := fields["contact_id"]; v != nil {
		contactID = *v
	}
	k := f.key(dashboardID, contactID)
	if existing, ok := f.rows[k]; ok {
		prev := existing.status
		existing.previous = &prev
		existing.status = status
		for col, val := range fields {
			existing.fields[col] = val
		}
		return nil
	}
	f.rows[k] = &storedContact{status: status, fields: fields}
	return nil
}

func (f *fakeContacts) Cancel(dashboardID uint, contactID string, _ map[string]*string) error {
	if f.err != nil {
		return f.err
	}
	existing, ok := f.rows[f.key(dashboardID, contactID)]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	prev := existing.status
	existing.previous = &prev
	existing.status = models.ContactStatusCancelled
	return nil
}

type fakeLogs struct {
	entries []*models.WebhookLog
	err     error
}

func (f *fakeLogs) Create(entry *models.WebhookLog) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

type fakeSettings struct {
	strings map[string]string
	bools   map[string]bool
	err     error
}

func (f *fakeSettings) GetString(key, def string) (string, error) {
	if f.err != nil {
		return def, f.err
	}
	if v, ok := f.strings[key]; ok {
		return v, nil
	}
	return def, nil
}

func (f *fakeSettings) GetBool(key string, def bool) (bool, error) {
	if f.err != nil {
		return def, f.err
	}
	if v, ok := f.bools[key]; ok {
		return v, nil
	}
	return def, nil
}

func newProcessor() (*Processor, *fakeLimiter, *fakeContacts, *fakeLogs, *fakeSettings) {
	limiter := &fakeLimiter{denied: map[string]bool{}}
	contacts := newFakeContacts()
	logs := &fakeLogs{}
	settings := &fakeSettings{
		strings: map[string]string{models.SettingSharedWebhookKey: testKey},
		bools:   map[string]bool{},
	}
	resolver := &fakeResolver{dashboards: map[string]*models.Dashboard{
		"SFG": {ID: 7, Name: "Smith Financial Group", Active: true},
	}}
	p := &Processor{
		Limiter:    limiter,
		Dashboards: resolver,
		Contacts:   contacts,
		Logs:       logs,
		Settings:   settings,
	}
	return p, limiter, contacts, logs, settings
}

func registerBody(contactID string) []byte {
	return []byte(`{
		"action": "register",
		"advisor_code": "SFG",
		"contact_id": "` + contactID + `",
		"first_name": "Jane",
		"customData": {
			"Workshop Date": "03/15/2024",
			"Spouse Name": "John"
		}
	}`)
}

func TestHandleRegisterStoresContact(t *testing.T) {
	p, _, contacts, _, _ := newProcessor()

	res := p.Handle(context.Background(), Request{
		Key:      testKey,
		SourceIP: "10.0.0.1",
		RawBody:  registerBody("abc123"),
	})

	require.True(t, res.Success(), "unexpected error: %s %s", res.ErrorCode, res.Message)
	assert.Equal(t, 200, res.HTTPStatus)
	assert.Equal(t, "register", res.Action)
	assert.Equal(t, models.ContactStatusRegistered, res.ContactStatus)
	assert.Equal(t, "abc123", res.ContactID)
	require.NotNil(t, res.DashboardID)
	assert.Equal(t, uint(7), *res.DashboardID)

	row := contacts.rows["7/abc123"]
	require.NotNil(t, row)
	assert.Equal(t, models.ContactStatusRegistered, row.status)
	require.NotNil(t, row.fields["workshop_date"])
	assert.Equal(t, "2024-03-15", *row.fields["workshop_date"])
	require.NotNil(t, row.fields["spouse_name"])
	assert.Equal(t, "John", *row.fields["spouse_name"])
}

func TestHandleAdvisorCodeIsCaseInsensitive(t *testing.T) {
	p, _, _, _, _ := newProcessor()

	res := p.Handle(context.Background(), Request{
		Key:      testKey,
		SourceIP: "10.0.0.1",
		RawBody:  []byte(`{"action":"register","advisor_code":"sfg","contact_id":"c1"}`),
	})

	require.True(t, res.Success())
}

func TestHandleReplayKeepsStatus(t *testing.T) {
	p, _, contacts, _, _ := newProcessor()
	req := Request{Key: testKey, SourceIP: "10.0.0.1", RawBody: registerBody("abc123")}

	require.True(t, p.Handle(context.Background(), req).Success())
	require.True(t, p.Handle(context.Background(), req).Success())

	row := contacts.rows["7/abc123"]
	require.NotNil(t, row)
	assert.Equal(t, models.ContactStatusRegistered, row.status)
	require.NotNil(t, row.previous)
	assert.Equal(t, models.ContactStatusRegistered, *row.previous)
}

func TestHandleStatusTransitionKeepsHistory(t *testing.T) {
	p, _, contacts, _, _ := newProcessor()
	require.True(t, p.Handle(context.Background(), Request{
		Key: testKey, SourceIP: "10.0.0.1", RawBody: registerBody("abc123"),
	}).Success())

	res := p.Handle(context.Background(), Request{
		Key:      testKey,
		SourceIP: "10.0.0.1",
		RawBody:  []byte(`{"action":"attended","advisor_code":"SFG","contact_id":"abc123"}`),
	})

	require.True(t, res.Success())
	assert.Equal(t, models.ContactStatusAttendedReport, res.ContactStatus)
	row := contacts.rows["7/abc123"]
	assert.Equal(t, models.ContactStatusAttendedReport, row.status)
	require.NotNil(t, row.previous)
	assert.Equal(t, models.ContactStatusRegistered, *row.previous)
}

func TestHandleCancelExistingContact(t *testing.T) {
	p, _, contacts, _, _ := newProcessor()
	require.True(t, p.Handle(context.Background(), Request{
		Key: testKey, SourceIP: "10.0.0.1", RawBody: registerBody("abc123"),
	}).Success())

	res := p.Handle(context.Background(), Request{
		Key:      testKey,
		SourceIP: "10.0.0.1",
		RawBody:  []byte(`{"action":"cancel","advisor_code":"SFG","contact_id":"abc123"}`),
	})

	require.True(t, res.Success())
	assert.Equal(t, models.ContactStatusCancelled, res.ContactStatus)
	row := contacts.rows["7/abc123"]
	assert.Equal(t, models.ContactStatusCancelled, row.status)
	require.NotNil(t, row.previous)
	assert.Equal(t, models.ContactStatusRegistered, *row.previous)
}

func TestHandleCancelUnknownContactIsNotFound(t *testing.T) {
	p, _, _, _, _ := newProcessor()

	res := p.Handle(context.Background(), Request{
		Key:      testKey,
		SourceIP: "10.0.0.1",
		RawBody:  []byte(`{"action":"cancel","advisor_code":"SFG","contact_id":"ghost"}`),
	})

	assert.Equal(t, ErrNotFound, res.ErrorCode)
	assert.Equal(t, 404, res.HTTPStatus)
}

func TestHandleErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name       string
		key        string
		body       string
		wantCode   string
		wantStatus int
	}{
		{"wrong key", "deadbeef", `{"action":"register"}`, ErrInvalidKey, 404},
		{"empty body", testKey, ``, ErrInvalidPayload, 400},
		{"garbage body", testKey, `%%%not-json=%ZZ`, ErrInvalidPayload, 400},
		{"no advisor code", testKey, `{"action":"register","contact_id":"c1"}`, ErrMissingAdvisorCode, 400},
		{"unknown advisor code", testKey, `{"action":"register","advisor_code":"NOPE","contact_id":"c1"}`, ErrUnknownAdvisorCode, 404},
		{"bad action", testKey, `{"action":"promote","advisor_code":"SFG","contact_id":"c1"}`, ErrInvalidAction, 400},
		{"no contact id", testKey, `{"action":"register","advisor_code":"SFG"}`, ErrMissingContactID, 400},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, _, _, _, _ := newProcessor()
			res := p.Handle(context.Background(), Request{
				Key: tc.key, SourceIP: "10.0.0.1", RawBody: []byte(tc.body),
			})
			assert.Equal(t, tc.wantCode, res.ErrorCode)
			assert.Equal(t, tc.wantStatus, res.HTTPStatus)
		})
	}
}

func TestHandleBlankSnakeCaseContactIDIsMissing(t *testing.T) {
	p, _, contacts, _, _ := newProcessor()

	// contact_id outranks contactId in the alias table; when the snake_case
	// spelling is present but blank it maps to NULL and the camelCase value
	// must not sneak the request past the contact id check.
	res := p.Handle(context.Background(), Request{
		Key:      testKey,
		SourceIP: "10.0.0.1",
		RawBody:  []byte(`{"action":"register","advisor_code":"SFG","contact_id":"","contactId":"abc"}`),
	})

	assert.Equal(t, ErrMissingContactID, res.ErrorCode)
	assert.Equal(t, 400, res.HTTPStatus)
	assert.Empty(t, contacts.rows)
}

func TestHandleUnconfiguredKeyRejectsEverything(t *testing.T) {
	p, _, _, _, settings := newProcessor()
	delete(settings.strings, models.SettingSharedWebhookKey)

	res := p.Handle(context.Background(), Request{
		Key: "", SourceIP: "10.0.0.1", RawBody: registerBody("c1"),
	})

	assert.Equal(t, ErrInvalidKey, res.ErrorCode)
}

func TestHandleInactiveDashboardRejected(t *testing.T) {
	p, _, _, _, _ := newProcessor()
	p.Dashboards = &fakeResolver{dashboards: map[string]*models.Dashboard{
		"SFG": {ID: 7, Active: false},
	}}

	res := p.Handle(context.Background(), Request{
		Key: testKey, SourceIP: "10.0.0.1", RawBody: registerBody("c1"),
	})

	assert.Equal(t, ErrUnknownAdvisorCode, res.ErrorCode)
	assert.Equal(t, 404, res.HTTPStatus)
}

func TestHandleIPRateLimitRunsBeforeKeyCheck(t *testing.T) {
	p, limiter, _, _, _ := newProcessor()
	limiter.denied["webhook:ip:10.0.0.1"] = true

	res := p.Handle(context.Background(), Request{
		Key: "completely-wrong", SourceIP: "10.0.0.1", RawBody: registerBody("c1"),
	})

	assert.Equal(t, ErrRateLimited, res.ErrorCode)
	assert.Equal(t, 429, res.HTTPStatus)
}

func TestHandleSharedRateLimit(t *testing.T) {
	p, limiter, _, _, _ := newProcessor()
	limiter.denied["webhook:shared"] = true

	res := p.Handle(context.Background(), Request{
		Key: testKey, SourceIP: "10.0.0.1", RawBody: registerBody("c1"),
	})

	assert.Equal(t, ErrRateLimited, res.ErrorCode)
}

func TestHandleLimiterFailureFailsOpen(t *testing.T) {
	p, limiter, _, _, _ := newProcessor()
	limiter.err = errors.New("redis down")

	res := p.Handle(context.Background(), Request{
		Key: testKey, SourceIP: "10.0.0.1", RawBody: registerBody("c1"),
	})

	require.True(t, res.Success())
}

func TestHandleStorageErrorIsDBError(t *testing.T) {
	p, _, contacts, _, _ := newProcessor()
	contacts.err = errors.New("mysql gone away")

	res := p.Handle(context.Background(), Request{
		Key: testKey, SourceIP: "10.0.0.1", RawBody: registerBody("c1"),
	})

	assert.Equal(t, ErrDBError, res.ErrorCode)
	assert.Equal(t, 500, res.HTTPStatus)
}

func TestAuditLoggingDisabledByDefault(t *testing.T) {
	p, _, _, logs, _ := newProcessor()

	p.Handle(context.Background(), Request{
		Key: testKey, SourceIP: "10.0.0.1", RawBody: registerBody("c1"),
	})

	assert.Empty(t, logs.entries)
}

func TestAuditLogRecordsSuccess(t *testing.T) {
	p, _, _, logs, settings := newProcessor()
	settings.bools[models.SettingWebhookLogging] = true

	p.Handle(context.Background(), Request{
		Key: testKey, SourceIP: "10.0.0.1", RawBody: registerBody("abc123"),
	})

	require.Len(t, logs.entries, 1)
	entry := logs.entries[0]
	assert.Equal(t, 200, entry.StatusCode)
	assert.Nil(t, entry.ErrorCode)
	require.NotNil(t, entry.ParsedAction)
	assert.Equal(t, "register", *entry.ParsedAction)
	require.NotNil(t, entry.ParsedTab)
	assert.Equal(t, "current_registrations", *entry.ParsedTab)
	require.NotNil(t, entry.ParsedContactID)
	assert.Equal(t, "abc123", *entry.ParsedContactID)
	require.NotNil(t, entry.DashboardID)
	assert.Equal(t, uint(7), *entry.DashboardID)
	assert.Equal(t, "10.0.0.1", entry.IPAddress)
	assert.Contains(t, entry.ResponseBody, `"success":true`)
}

func TestAuditLogRecordsFailureWithMetadata(t *testing.T) {
	p, _, _, logs, settings := newProcessor()
	settings.bools[models.SettingWebhookLogging] = true

	// Bad action fails the pipeline, but the raw body is still parseable and
	// its metadata must land in the entry.
	p.Handle(context.Background(), Request{
		Key:      testKey,
		SourceIP: "10.0.0.1",
		RawBody:  []byte(`{"action":"promote","advisor_code":"SFG","contact_id":"abc123"}`),
	})

	require.Len(t, logs.entries, 1)
	entry := logs.entries[0]
	assert.Equal(t, 400, entry.StatusCode)
	require.NotNil(t, entry.ErrorCode)
	assert.Equal(t, ErrInvalidAction, *entry.ErrorCode)
	require.NotNil(t, entry.ParsedAction)
	assert.Equal(t, "promote", *entry.ParsedAction)
	assert.Nil(t, entry.ParsedTab)
	require.NotNil(t, entry.ParsedContactID)
	assert.Equal(t, "abc123", *entry.ParsedContactID)
	require.NotNil(t, entry.DashboardID, "dashboard resolved from raw body for failed request")
	assert.Equal(t, uint(7), *entry.DashboardID)
	assert.Contains(t, entry.RequestBody, "promote")
}

func TestAuditLogUnreadableBodyStillLogged(t *testing.T) {
	p, _, _, logs, settings := newProcessor()
	settings.bools[models.SettingWebhookLogging] = true

	p.Handle(context.Background(), Request{
		Key: testKey, SourceIP: "10.0.0.1", RawBody: []byte(`%%%not-json=%ZZ`),
	})

	require.Len(t, logs.entries, 1)
	entry := logs.entries[0]
	require.NotNil(t, entry.ErrorCode)
	assert.Equal(t, ErrInvalidPayload, *entry.ErrorCode)
	assert.Nil(t, entry.ParsedAction)
	assert.Nil(t, entry.DashboardID)
}
