package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/guildhub/guild-xp-hub/internal/domain/leaderboard"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// WARM LEADERBOARDS JOB
// Preloads every guild's top page into the cache so first reads after a
// deploy or cache flush do not stampede the store.
// ══════════════════════════════════════════════════════════════════════════════

// GuildLister lists the guilds known to the hub.
type GuildLister interface {
	ListIDs(ctx context.Context) ([]shared.GuildID, error)
}

// LeaderboardWarmer replaces a guild's cached top page.
type LeaderboardWarmer interface {
	Warm(ctx context.Context, guildID shared.GuildID, entries []*leaderboard.Entry, limit int, ttl time.Duration) error
}

// WarmLeaderboardsConfig contains configuration for the warm job.
type WarmLeaderboardsConfig struct {
	// TopN is how many entries to preload per guild.
	TopN int

	// CacheTTL is the TTL for the warmed pages.
	CacheTTL time.Duration

	// Timeout is the maximum duration for one warm pass.
	Timeout time.Duration
}

// DefaultWarmLeaderboardsConfig returns sensible defaults.
func DefaultWarmLeaderboardsConfig() WarmLeaderboardsConfig {
	return WarmLeaderboardsConfig{
		TopN:     10,
		CacheTTL: 5 * time.Minute,
		Timeout:  2 * time.Minute,
	}
}

// WarmStats contains statistics from a warm pass.
type WarmStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Guilds      int
	Warmed      int
	Errors      int
}

// WarmLeaderboardsJob preloads leaderboard caches.
type WarmLeaderboardsJob struct {
	guilds      GuildLister
	leaderboard leaderboard.Repository
	warmer      LeaderboardWarmer
	logger      *slog.Logger
	config      WarmLeaderboardsConfig

	lastStats atomic.Value // *WarmStats
}

// NewWarmLeaderboardsJob creates a new warm leaderboards job.
func NewWarmLeaderboardsJob(
	guilds GuildLister,
	lb leaderboard.Repository,
	warmer LeaderboardWarmer,
	logger *slog.Logger,
	config WarmLeaderboardsConfig,
) *WarmLeaderboardsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TopN <= 0 {
		config.TopN = 10
	}

	return &WarmLeaderboardsJob{
		guilds:      guilds,
		leaderboard: lb,
		warmer:      warmer,
		logger:      logger.With("job", "warm_leaderboards"),
		config:      config,
	}
}

// Name returns the job name.
func (j *WarmLeaderboardsJob) Name() string {
	return "warm_leaderboards"
}

// Description returns a human-readable description.
func (j *WarmLeaderboardsJob) Description() string {
	return "Preloads each guild's top leaderboard page into the cache"
}

// Run executes one warm pass. A guild that fails to warm is logged and
// skipped; its first read falls through to the store as usual.
func (j *WarmLeaderboardsJob) Run(ctx context.Context) error {
	stats := &WarmStats{StartedAt: time.Now()}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	guildIDs, err := j.guilds.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list guilds: %w", err)
	}

	stats.Guilds = len(guildIDs)

	for _, guildID := range guildIDs {
		entries, err := j.leaderboard.GetTop(ctx, guildID, j.config.TopN)
		if err != nil {
			stats.Errors++
			j.logger.Error("failed to read top entries",
				"guild_id", guildID.Int64(),
				"error", err,
			)
			continue
		}

		if err := j.warmer.Warm(ctx, guildID, entries, j.config.TopN, j.config.CacheTTL); err != nil {
			stats.Errors++
			j.logger.Warn("failed to warm leaderboard cache",
				"guild_id", guildID.Int64(),
				"error", err,
			)
			continue
		}

		stats.Warmed++
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)
	j.lastStats.Store(stats)

	j.logger.Debug("warm pass completed",
		"guilds", stats.Guilds,
		"warmed", stats.Warmed,
		"errors", stats.Errors,
	)

	if stats.Errors > 0 {
		return fmt.Errorf("warm pass completed with %d errors", stats.Errors)
	}

	return nil
}

// LastStats returns statistics from the last warm pass.
func (j *WarmLeaderboardsJob) LastStats() *WarmStats {
	stats := j.lastStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*WarmStats)
}
