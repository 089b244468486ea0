package guild

import (
	"context"

	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// Repository defines the storage operations for guild settings.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Get returns the guild row.
	// Returns shared.ErrGuildNotFound if the row does not exist.
	Get(ctx context.Context, guildID shared.GuildID) (*Guild, error)

	// GetOrCreate returns the guild row, creating one with defaults if
	// none exists yet.
	GetOrCreate(ctx context.Context, guildID shared.GuildID) (*Guild, error)

	// Update persists the guild's settings.
	// Returns shared.ErrGuildNotFound if the row does not exist.
	Update(ctx context.Context, g *Guild) error

	// TryActivateTempSeason atomically sets the temporary-season flag if
	// and only if it is currently clear. Returns false when another
	// temporary season already holds the flag.
	TryActivateTempSeason(ctx context.Context, guildID shared.GuildID) (bool, error)

	// ClearTempSeason atomically clears the temporary-season flag.
	// Returns false when the flag was already clear.
	ClearTempSeason(ctx context.Context, guildID shared.GuildID) (bool, error)
}
