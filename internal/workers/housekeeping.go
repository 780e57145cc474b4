package workers

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	sessionSweepSchedule  = "@every 5m"
	activityPruneSchedule = "0 3 * * *" // 03:00 daily

	// SessionIdleTimeout is how long an untouched visitor stays in memory
	SessionIdleTimeout = 12 * time.Hour
)

// SessionSweeper drops idle visitors
type SessionSweeper interface {
	Sweep(idle time.Duration) int
}

// ActivityPruner deletes audit entries older than a cutoff
type ActivityPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Housekeeping runs the periodic cleanup jobs
type Housekeeping struct {
	cron      *cron.Cron
	sessions  SessionSweeper
	activity  ActivityPruner
	retention time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewHousekeeping schedules the session sweep and the activity prune
func NewHousekeeping(sessions SessionSweeper, activity ActivityPruner, retention time.Duration, logger zerolog.Logger) (*Housekeeping, error) {
	h := &Housekeeping{
		cron:      cron.New(),
		sessions:  sessions,
		activity:  activity,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}

	if _, err := h.cron.AddFunc(sessionSweepSchedule, h.SweepSessions); err != nil {
		return nil, err
	}
	if _, err := h.cron.AddFunc(activityPruneSchedule, h.PruneActivity); err != nil {
		return nil, err
	}
	return h, nil
}

// Start runs the scheduler in the background
func (h *Housekeeping) Start() {
	h.logger.Info().
		Str("session_sweep", sessionSweepSchedule).
		Str("activity_prune", activityPruneSchedule).
		Dur("retention", h.retention).
		Msg("Starting housekeeping scheduler")
	h.cron.Start()
}

// Stop stops the scheduler and waits for running jobs
func (h *Housekeeping) Stop() {
	<-h.cron.Stop().Done()
}

// SweepSessions removes idle visitors from the session store
func (h *Housekeeping) SweepSessions() {
	removed := h.sessions.Sweep(SessionIdleTimeout)
	if removed > 0 {
		h.logger.Info().Int("removed", removed).Msg("Swept idle sessions")
	}
}

// PruneActivity deletes audit entries older than the retention period
func (h *Housekeeping) PruneActivity() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := h.now().Add(-h.retention)
	removed, err := h.activity.Prune(ctx, cutoff)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to prune activity")
		return
	}
	h.logger.Info().
		Int64("removed", removed).
		Time("cutoff", cutoff).
		Msg("Pruned activity log")
}
