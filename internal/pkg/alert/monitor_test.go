package alert

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profeds/advisor-dashboard/app/models"
	"github.com/profeds/advisor-dashboard/app/repository"
)

type fakeSource struct {
	count   int64
	summary []repository.CodeCount
}

func (f *fakeSource) CountRecentFailures(time.Duration) (int64, error) { return f.count, nil }
func (f *fakeSource) RecentFailureSummary(time.Duration) ([]repository.CodeCount, error) {
	return f.summary, nil
}

type fakeSettings struct {
	values map[string]string
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{values: map[string]string{}}
}

func (f *fakeSettings) GetString(key, def string) (string, error) {
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	return def, nil
}

func (f *fakeSettings) GetBool(key string, def bool) (bool, error) {
	v, ok := f.values[key]
	if !ok {
		return def, nil
	}
	return v == "1" || v == "true", nil
}

func (f *fakeSettings) GetInt(key string, def int) (int, error) {
	v, ok := f.values[key]
	if !ok {
		return def, nil
	}
	var n int
	if err := json.Unmarshal([]byte(v), &n); err != nil {
		return def, nil
	}
	return n, nil
}

func (f *fakeSettings) SetString(key, value string) error {
	f.values[key] = value
	return nil
}

func newTestMonitor(src *fakeSource, settings *fakeSettings, notifyURL string) *Monitor {
	settings.values[models.SettingAlertsEnabled] = "1"
	settings.values[models.SettingAlertNotifyURL] = notifyURL
	m := NewMonitor(src, settings)
	m.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return m
}

func TestCheckOnceNotifiesAboveThreshold(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	src := &fakeSource{count: 8, summary: []repository.CodeCount{{ErrorCode: "db_error", Count: 8}}}
	settings := newFakeSettings()
	m := newTestMonitor(src, settings, srv.URL)

	require.NoError(t, m.CheckOnce(context.Background()))

	require.NotNil(t, received)
	assert.Equal(t, "webhook_failures", received["alert"])
	assert.Equal(t, float64(8), received["failure_count"])
	assert.Equal(t, float64(models.DefaultAlertWindowMinutes), received["window_minutes"])
	assert.Equal(t, "2024-06-01T12:00:00Z", settings.values[models.SettingAlertLastNotifiedAt])
}

func TestCheckOnceBelowThresholdStaysQuiet(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	src := &fakeSource{count: int64(models.DefaultAlertThreshold) - 1}
	m := newTestMonitor(src, newFakeSettings(), srv.URL)

	require.NoError(t, m.CheckOnce(context.Background()))
	assert.False(t, called)
}

func TestCheckOnceDisabledStaysQuiet(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	settings := newFakeSettings()
	m := newTestMonitor(&fakeSource{count: 100}, settings, srv.URL)
	settings.values[models.SettingAlertsEnabled] = "0"

	require.NoError(t, m.CheckOnce(context.Background()))
	assert.False(t, called)
}

func TestCheckOnceRespectsCooldown(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	settings := newFakeSettings()
	m := newTestMonitor(&fakeSource{count: 100}, settings, srv.URL)

	// First alert fires and records its timestamp.
	require.NoError(t, m.CheckOnce(context.Background()))
	require.Equal(t, 1, calls)

	// 30 minutes later the cooldown (60 min default) has not elapsed.
	m.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC) }
	require.NoError(t, m.CheckOnce(context.Background()))
	assert.Equal(t, 1, calls)

	// After the cooldown a new alert goes out.
	m.Now = func() time.Time { return time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC) }
	require.NoError(t, m.CheckOnce(context.Background()))
	assert.Equal(t, 2, calls)
}

func TestCheckOnceWithoutNotifyURLStaysQuiet(t *testing.T) {
	m := newTestMonitor(&fakeSource{count: 100}, newFakeSettings(), "")
	require.NoError(t, m.CheckOnce(context.Background()))
}

func TestCheckOnceFailedDeliveryKeepsTimestampClear(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	settings := newFakeSettings()
	m := newTestMonitor(&fakeSource{count: 100}, settings, srv.URL)

	require.Error(t, m.CheckOnce(context.Background()))
	assert.Empty(t, settings.values[models.SettingAlertLastNotifiedAt])
}

func TestClampRetentionDays(t *testing.T) {
	assert.Equal(t, MinRetentionDays, ClampRetentionDays(0))
	assert.Equal(t, MinRetentionDays, ClampRetentionDays(-5))
	assert.Equal(t, 90, ClampRetentionDays(90))
	assert.Equal(t, MaxRetentionDays, ClampRetentionDays(4000))
}

type fakePruner struct {
	gotDays int
	deleted int64
}

func (f *fakePruner) DeleteOlderThan(days int) (int64, error) {
	f.gotDays = days
	return f.deleted, nil
}

func TestSweeperUsesConfiguredRetention(t *testing.T) {
	pruner := &fakePruner{deleted: 12}
	settings := newFakeSettings()
	settings.values[models.SettingLogRetentionDays] = "30"

	NewSweeper(pruner, settings).sweep()

	assert.Equal(t, 30, pruner.gotDays)
}

func TestSweeperClampsOutOfRangeRetention(t *testing.T) {
	pruner := &fakePruner{}
	settings := newFakeSettings()
	settings.values[models.SettingLogRetentionDays] = "2"

	NewSweeper(pruner, settings).sweep()

	assert.Equal(t, MinRetentionDays, pruner.gotDays)
}
