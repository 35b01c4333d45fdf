package alert

import (
	"context"
	"log"
	"time"

	"github.com/profeds/advisor-dashboard/app/models"
)

// SweepInterval is how often old audit entries are pruned.
const SweepInterval = 6 * time.Hour

// Retention bounds. Values outside this range are clamped so a typo in the
// settings cannot wipe the audit trail or let it grow without bound.
const (
	MinRetentionDays = 7
	MaxRetentionDays = 365
)

// LogPruner is the slice of the audit log the sweeper needs.
type LogPruner interface {
	DeleteOlderThan(days int) (int64, error)
}

// RetentionSettings reads the configured retention period.
type RetentionSettings interface {
	GetInt(key string, def int) (int, error)
}

// Sweeper deletes audit entries older than the configured retention period.
type Sweeper struct {
	Logs     LogPruner
	Settings RetentionSettings
}

// NewSweeper returns a retention sweeper.
func NewSweeper(logs LogPruner, settings RetentionSettings) *Sweeper {
	return &Sweeper{Logs: logs, Settings: settings}
}

// Run blocks until the context is cancelled. One sweep runs immediately so a
// freshly restarted service does not wait six hours to enforce retention.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep()

	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	days, err := s.Settings.GetInt(models.SettingLogRetentionDays, models.DefaultLogRetentionDays)
	if err != nil {
		log.Printf("[RETENTION] could not read retention setting: %v", err)
		return
	}
	days = ClampRetentionDays(days)

	deleted, err := s.Logs.DeleteOlderThan(days)
	if err != nil {
		log.Printf("[RETENTION] sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[RETENTION] removed %d audit entries older than %d days", deleted, days)
	}
}

// ClampRetentionDays forces a retention period into the supported range.
func ClampRetentionDays(days int) int {
	if days < MinRetentionDays {
		return MinRetentionDays
	}
	if days > MaxRetentionDays {
		return MaxRetentionDays
	}
	return days
}
