// Package jobs contains the scheduled background jobs of the hub.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/guildhub/guild-xp-hub/internal/application/command"
	"github.com/guildhub/guild-xp-hub/internal/domain/season"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEASON EXPIRY JOB
// Polls for temporary seasons whose time box has passed and retires them.
// A temporary season is a pure time box: nothing is archived or reset when
// it ends, the season row just becomes permanent and the guild is told the
// box closed.
// ══════════════════════════════════════════════════════════════════════════════

// ExpiredSeasonLister lists temporary seasons whose end time has passed.
type ExpiredSeasonLister interface {
	ListExpiredTemporary(ctx context.Context, now time.Time) ([]*season.Season, error)
}

// TempSeasonStopper retires one guild's running temporary season.
type TempSeasonStopper interface {
	Handle(ctx context.Context, cmd command.StopTemporarySeasonCommand) error
}

// SeasonExpiryConfig contains configuration for the expiry job.
type SeasonExpiryConfig struct {
	// Timeout is the maximum duration for one sweep.
	Timeout time.Duration
}

// DefaultSeasonExpiryConfig returns sensible defaults.
func DefaultSeasonExpiryConfig() SeasonExpiryConfig {
	return SeasonExpiryConfig{
		Timeout: 30 * time.Second,
	}
}

// SeasonExpiryStats contains statistics from an expiry sweep.
type SeasonExpiryStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Found       int
	Stopped     int
	AlreadyGone int
	Errors      int
}

// SeasonExpiryJob sweeps expired temporary seasons.
type SeasonExpiryJob struct {
	seasons ExpiredSeasonLister
	stopper TempSeasonStopper
	logger  *slog.Logger
	config  SeasonExpiryConfig

	// now is swappable for tests.
	now func() time.Time

	lastStats atomic.Value // *SeasonExpiryStats
}

// NewSeasonExpiryJob creates a new season expiry job.
func NewSeasonExpiryJob(
	seasons ExpiredSeasonLister,
	stopper TempSeasonStopper,
	logger *slog.Logger,
	config SeasonExpiryConfig,
) *SeasonExpiryJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &SeasonExpiryJob{
		seasons: seasons,
		stopper: stopper,
		logger:  logger.With("job", "season_expiry"),
		config:  config,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the job's time source. Test hook.
func (j *SeasonExpiryJob) WithClock(now func() time.Time) *SeasonExpiryJob {
	j.now = now
	return j
}

// Name returns the job name.
func (j *SeasonExpiryJob) Name() string {
	return "season_expiry"
}

// Description returns a human-readable description.
func (j *SeasonExpiryJob) Description() string {
	return "Retires temporary seasons whose scheduled end has passed"
}

// Run executes one expiry sweep. A season already stopped by a racing
// manual command is not an error; the flag compare-and-set in the stop
// path makes the sweep idempotent.
func (j *SeasonExpiryJob) Run(ctx context.Context) error {
	startedAt := j.now()
	stats := &SeasonExpiryStats{StartedAt: startedAt}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	expired, err := j.seasons.ListExpiredTemporary(ctx, startedAt)
	if err != nil {
		return fmt.Errorf("failed to list expired seasons: %w", err)
	}

	stats.Found = len(expired)

	for _, s := range expired {
		err := j.stopper.Handle(ctx, command.StopTemporarySeasonCommand{
			GuildID: s.GuildID,
			Manual:  false,
		})

		switch {
		case err == nil:
			stats.Stopped++
			j.logger.Info("temporary season expired",
				"guild_id", s.GuildID.Int64(),
				"label", s.Label.String(),
			)
		case errors.Is(err, shared.ErrNoTempSeasonRunning):
			stats.AlreadyGone++
		default:
			stats.Errors++
			j.logger.Error("failed to stop expired season",
				"guild_id", s.GuildID.Int64(),
				"label", s.Label.String(),
				"error", err,
			)
		}
	}

	stats.CompletedAt = j.now()
	stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)
	j.lastStats.Store(stats)

	if stats.Errors > 0 {
		return fmt.Errorf("expiry sweep completed with %d errors", stats.Errors)
	}

	return nil
}

// LastStats returns statistics from the last sweep.
func (j *SeasonExpiryJob) LastStats() *SeasonExpiryStats {
	stats := j.lastStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*SeasonExpiryStats)
}
