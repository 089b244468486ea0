// Package leaderboard contains the ranked view of a guild's memberships.
package leaderboard

import (
	"context"
	"time"

	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines ranked read operations over the live membership
// ledger. The store is authoritative; caches only accelerate it.
type Repository interface {
	// GetTop returns the first limit entries of a guild's leaderboard,
	// ranked tie-aware.
	GetTop(ctx context.Context, guildID shared.GuildID, limit int) ([]*Entry, error)

	// GetPage returns one page of the leaderboard.
	GetPage(ctx context.Context, guildID shared.GuildID, p shared.Pagination) ([]*Entry, error)

	// GetRank returns a member's entry with their tie-aware rank: one
	// plus the number of members with strictly more experience.
	// Returns shared.ErrMemberNotFound for unknown members.
	GetRank(ctx context.Context, guildID shared.GuildID, userID shared.UserID) (*Entry, error)

	// GetStandings returns the complete ranked standings of a guild.
	// Used by season archival to snapshot every member.
	GetStandings(ctx context.Context, guildID shared.GuildID) (*Standings, error)

	// GetTotalCount returns the number of ranked members in a guild.
	GetTotalCount(ctx context.Context, guildID shared.GuildID) (int, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Cache defines the contract for the leaderboard read accelerator.
// Separated from the repository so the backend can vary (Redis, memory).
type Cache interface {
	// GetCachedTop returns the cached top-N for a guild, or nil on miss.
	GetCachedTop(ctx context.Context, guildID shared.GuildID, limit int) ([]*Entry, error)

	// SetCachedTop stores the top-N for a guild with a TTL. The limit is
	// what the store was asked for: a shorter entry list means the guild
	// has no more members, which lets smaller reads reuse the page.
	SetCachedTop(ctx context.Context, guildID shared.GuildID, entries []*Entry, limit int, ttl time.Duration) error

	// Invalidate drops the cached leaderboard of one guild.
	Invalidate(ctx context.Context, guildID shared.GuildID) error

	// InvalidateAll drops every cached leaderboard.
	InvalidateAll(ctx context.Context) error
}
