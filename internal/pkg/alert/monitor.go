// Package alert contains the background maintenance workers: the failure
// monitor that notifies an operator endpoint when webhook deliveries start
// failing in bulk, and the retention sweeper that prunes old audit entries.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/profeds/advisor-dashboard/app/models"
	"github.com/profeds/advisor-dashboard/app/repository"
)

// CheckInterval is how often the monitor evaluates the failure rate.
const CheckInterval = 5 * time.Minute

// FailureSource is the slice of the audit log the monitor reads.
type FailureSource interface {
	CountRecentFailures(window time.Duration) (int64, error)
	RecentFailureSummary(window time.Duration) ([]repository.CodeCount, error)
}

// MonitorSettings is the runtime configuration the monitor reads each cycle.
type MonitorSettings interface {
	GetString(key, def string) (string, error)
	GetBool(key string, def bool) (bool, error)
	GetInt(key string, def int) (int, error)
	SetString(key, value string) error
}

// Monitor watches the audit log and posts a JSON notification when failures
// within the window reach the configured threshold. Rate-limit and bad-key
// rejections are not counted; they do not indicate a broken pipeline.
type Monitor struct {
	Logs     FailureSource
	Settings MonitorSettings

	// Client and Now are swappable for tests.
	Client *http.Client
	Now    func() time.Time
}

// NewMonitor returns a monitor with a sane HTTP timeout.
func NewMonitor(logs FailureSource, settings MonitorSettings) *Monitor {
	return &Monitor{
		Logs:     logs,
		Settings: settings,
		Client:   &http.Client{Timeout: 10 * time.Second},
		Now:      time.Now,
	}
}

// Run blocks until the context is cancelled, checking on a fixed interval.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.CheckOnce(ctx); err != nil {
				log.Printf("[ALERT] failure check: %v", err)
			}
		}
	}
}

// CheckOnce runs one evaluation cycle: enabled -> over threshold -> cooldown
// elapsed -> notify and record the notification time.
func (m *Monitor) CheckOnce(ctx context.Context) error {
	enabled, err := m.Settings.GetBool(models.SettingAlertsEnabled, false)
	if err != nil || !enabled {
		return err
	}

	threshold, err := m.Settings.GetInt(models.SettingAlertThreshold, models.DefaultAlertThreshold)
	if err != nil {
		return err
	}
	windowMinutes, err := m.Settings.GetInt(models.SettingAlertWindowMinutes, models.DefaultAlertWindowMinutes)
	if err != nil {
		return err
	}
	window := time.Duration(windowMinutes) * time.Minute

	count, err := m.Logs.CountRecentFailures(window)
	if err != nil {
		return err
	}
	if count < int64(threshold) {
		return nil
	}

	cooldownMin, err := m.Settings.GetInt(models.SettingAlertCooldownMin, models.DefaultAlertCooldownMinutes)
	if err != nil {
		return err
	}
	if !m.cooldownElapsed(cooldownMin) {
		return nil
	}

	notifyURL, err := m.Settings.GetString(models.SettingAlertNotifyURL, "")
	if err != nil {
		return err
	}
	if notifyURL == "" {
		return nil
	}

	summary, err := m.Logs.RecentFailureSummary(window)
	if err != nil {
		return err
	}

	if err := m.notify(ctx, notifyURL, count, windowMinutes, summary); err != nil {
		return err
	}
	return m.Settings.SetString(models.SettingAlertLastNotifiedAt, m.Now().UTC().Format(time.RFC3339))
}

func (m *Monitor) cooldownElapsed(cooldownMinutes int) bool {
	last, err := m.Settings.GetString(models.SettingAlertLastNotifiedAt, "")
	if err != nil || last == "" {
		return true
	}
	lastTime, err := time.Parse(time.RFC3339, last)
	if err != nil {
		return true
	}
	return m.Now().Sub(lastTime) >= time.Duration(cooldownMinutes)*time.Minute
}

func (m *Monitor) notify(ctx context.Context, url string, count int64, windowMinutes int, summary []repository.CodeCount) error {
	body, err := json.Marshal(map[string]any{
		"alert":          "webhook_failures",
		"failure_count":  count,
		"window_minutes": windowMinutes,
		"failures":       summary,
		"generated_at":   m.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("alert endpoint responded with %d", resp.StatusCode)
	}
	log.Printf("[ALERT] notified %s about %d webhook failures in the last %d minutes", url, count, windowMinutes)
	return nil
}
