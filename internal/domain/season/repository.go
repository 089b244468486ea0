package season

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// Repository defines the storage operations for seasons and their
// archived scores. Implementations live in infrastructure/persistence.
type Repository interface {
	// CreateWithSnapshot inserts the season, archives the guild's current
	// leaderboard under it with 1-based rankings, and soft-resets every
	// membership of the guild to zero, all in one transaction.
	// Returns shared.ErrSeasonLabelTaken when the label collides.
	CreateWithSnapshot(ctx context.Context, s *Season) error

	// Create inserts a season row without touching the ledger. Used for
	// temporary seasons, which are a pure time box.
	// Returns shared.ErrSeasonLabelTaken when the label collides.
	Create(ctx context.Context, s *Season) error

	// GetByID returns a season by ID.
	// Returns shared.ErrSeasonNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Season, error)

	// GetByLabel returns a guild's season by its lowercased label.
	// Returns shared.ErrSeasonNotFound if it does not exist.
	GetByLabel(ctx context.Context, guildID shared.GuildID, label shared.SeasonLabel) (*Season, error)

	// ListByGuild returns a guild's seasons, newest first.
	ListByGuild(ctx context.Context, guildID shared.GuildID) ([]*Season, error)

	// CountByGuild returns how many seasons a guild has.
	CountByGuild(ctx context.Context, guildID shared.GuildID) (int, error)

	// LabelExists checks whether a guild already has a season with the
	// given lowercased label.
	LabelExists(ctx context.Context, guildID shared.GuildID, label shared.SeasonLabel) (bool, error)

	// Rename updates a season's label.
	// Returns shared.ErrSeasonNotFound or shared.ErrSeasonLabelTaken.
	Rename(ctx context.Context, id uuid.UUID, label shared.SeasonLabel) error

	// Delete removes a season and its archived scores in one transaction.
	// Returns shared.ErrSeasonNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// MakePermanent clears a temporary season's scheduled expiry.
	MakePermanent(ctx context.Context, id uuid.UUID) error

	// GetActiveTemporary returns the guild's running temporary season.
	// Returns shared.ErrSeasonNotFound when none is running.
	GetActiveTemporary(ctx context.Context, guildID shared.GuildID) (*Season, error)

	// ListExpiredTemporary returns every temporary season whose end time
	// has passed at the given instant.
	ListExpiredTemporary(ctx context.Context, now time.Time) ([]*Season, error)

	// Scores returns a season's archived scores ordered by ranking.
	Scores(ctx context.Context, seasonID uuid.UUID) ([]Score, error)

	// UserHistory returns a member's archived standings across the
	// guild's seasons, newest season first.
	UserHistory(ctx context.Context, guildID shared.GuildID, userID shared.UserID) ([]UserSeasonScore, error)
}
