package member

import (
	"context"

	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the storage contract. Implementations live in
// infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines the storage operations for memberships.
type Repository interface {
	// Get returns the membership for a (user, guild) pair.
	// Returns shared.ErrMemberNotFound if the row does not exist.
	Get(ctx context.Context, userID shared.UserID, guildID shared.GuildID) (*Membership, error)

	// GetOrCreate returns the membership, creating a fresh level-zero row
	// if none exists yet.
	GetOrCreate(ctx context.Context, userID shared.UserID, guildID shared.GuildID) (*Membership, error)

	// Update persists the membership's progression fields.
	// Returns shared.ErrMemberNotFound if the row does not exist.
	Update(ctx context.Context, m *Membership) error

	// SetBlocked flips the experience block flag.
	SetBlocked(ctx context.Context, userID shared.UserID, guildID shared.GuildID, blocked bool) error

	// ListByGuild returns all memberships of a guild ordered by XP
	// descending.
	ListByGuild(ctx context.Context, guildID shared.GuildID) ([]*Membership, error)

	// CountByGuild returns the number of memberships in a guild.
	CountByGuild(ctx context.Context, guildID shared.GuildID) (int, error)
}

// ProfileRepository defines the storage operations for user profiles.
type ProfileRepository interface {
	// GetOrCreate returns the profile, creating one with defaults if none
	// exists yet.
	GetOrCreate(ctx context.Context, userID shared.UserID) (*Profile, error)

	// SetPingOnLevelUp updates the announcement ping preference.
	// Returns shared.ErrProfileNotFound if the row does not exist.
	SetPingOnLevelUp(ctx context.Context, userID shared.UserID, ping bool) error
}
