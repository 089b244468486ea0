package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guildhub/guild-xp-hub/internal/domain/leaderboard"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// Caches the top of each guild's leaderboard so the common "show me the
// board" read skips PostgreSQL. Only the first page is cached: deep
// pagination and exact ranks always come from the store.
// ══════════════════════════════════════════════════════════════════════════════

// keyGuildTop is the key prefix for cached guild top pages.
const keyGuildTop = "leaderboard:top:"

// cachedEntry is the wire form of one cached leaderboard row.
type cachedEntry struct {
	Rank      int       `json:"rank"`
	UserID    int64     `json:"user_id"`
	XP        int64     `json:"xp"`
	Level     int       `json:"level"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LeaderboardCache implements leaderboard.Cache on Redis.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a new LeaderboardCache instance.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

func topKey(guildID shared.GuildID) string {
	return fmt.Sprintf("%s%d", keyGuildTop, guildID.Int64())
}

// GetCachedTop returns the cached top page of a guild, or nil on miss.
// A cached page shorter than the requested limit counts as a miss: the
// cache cannot tell a small guild from a small earlier request, so the
// store settles it.
func (l *LeaderboardCache) GetCachedTop(ctx context.Context, guildID shared.GuildID, limit int) ([]*leaderboard.Entry, error) {
	var wrapped struct {
		Requested int           `json:"requested"`
		Entries   []cachedEntry `json:"entries"`
	}

	err := l.cache.Get(ctx, topKey(guildID), &wrapped)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}

	if len(wrapped.Entries) < limit && len(wrapped.Entries) >= wrapped.Requested {
		return nil, nil
	}

	if len(wrapped.Entries) > limit {
		wrapped.Entries = wrapped.Entries[:limit]
	}

	entries := make([]*leaderboard.Entry, 0, len(wrapped.Entries))
	for _, e := range wrapped.Entries {
		entries = append(entries, &leaderboard.Entry{
			Rank:      shared.Rank(e.Rank),
			UserID:    shared.UserID(e.UserID),
			XP:        e.XP,
			Level:     e.Level,
			UpdatedAt: e.UpdatedAt,
		})
	}

	return entries, nil
}

// SetCachedTop stores the top page of a guild with a TTL.
func (l *LeaderboardCache) SetCachedTop(ctx context.Context, guildID shared.GuildID, entries []*leaderboard.Entry, limit int, ttl time.Duration) error {
	wrapped := struct {
		Requested int           `json:"requested"`
		Entries   []cachedEntry `json:"entries"`
	}{
		Requested: limit,
		Entries:   make([]cachedEntry, 0, len(entries)),
	}

	for _, e := range entries {
		wrapped.Entries = append(wrapped.Entries, cachedEntry{
			Rank:      e.Rank.Int(),
			UserID:    e.UserID.Int64(),
			XP:        e.XP,
			Level:     e.Level,
			UpdatedAt: e.UpdatedAt,
		})
	}

	data, err := json.Marshal(wrapped)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	return l.cache.Client().Set(ctx, topKey(guildID), data, ttl).Err()
}

// Invalidate drops the cached leaderboard of one guild.
func (l *LeaderboardCache) Invalidate(ctx context.Context, guildID shared.GuildID) error {
	return l.cache.Delete(ctx, topKey(guildID))
}

// InvalidateAll drops every cached leaderboard.
func (l *LeaderboardCache) InvalidateAll(ctx context.Context) error {
	return l.cache.DeleteByPattern(ctx, keyGuildTop+"*")
}

// Warm preloads a guild's top page, replacing whatever was cached before.
func (l *LeaderboardCache) Warm(ctx context.Context, guildID shared.GuildID, entries []*leaderboard.Entry, limit int, ttl time.Duration) error {
	pipe := l.cache.Client().TxPipeline()
	pipe.Del(ctx, topKey(guildID))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return l.SetCachedTop(ctx, guildID, entries, limit, ttl)
}
