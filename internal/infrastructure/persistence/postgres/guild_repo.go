package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/guildhub/guild-xp-hub/internal/domain/guild"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GUILD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// GuildRepository implements guild.Repository for PostgreSQL.
type GuildRepository struct {
	conn *Connection
}

// NewGuildRepository creates a new GuildRepository.
func NewGuildRepository(conn *Connection) *GuildRepository {
	return &GuildRepository{conn: conn}
}

const guildColumns = `guild_id, xp_enabled, announce_channel, blocked_categories, temp_season_active, created_at`

// Get returns a guild's settings row.
func (r *GuildRepository) Get(ctx context.Context, guildID shared.GuildID) (*guild.Guild, error) {
	query := `
		SELECT ` + guildColumns + `
		FROM guilds
		WHERE guild_id = $1
	`

	row := r.conn.QueryRow(ctx, query, guildID.Int64())
	return scanGuild(row)
}

// GetOrCreate returns the settings row, inserting defaults if none exists.
func (r *GuildRepository) GetOrCreate(ctx context.Context, guildID shared.GuildID) (*guild.Guild, error) {
	query := `
		INSERT INTO guilds (guild_id)
		VALUES ($1)
		ON CONFLICT (guild_id) DO UPDATE SET guild_id = EXCLUDED.guild_id
		RETURNING ` + guildColumns

	row := r.conn.QueryRow(ctx, query, guildID.Int64())
	return scanGuild(row)
}

// Update persists the guild's settings.
func (r *GuildRepository) Update(ctx context.Context, g *guild.Guild) error {
	query := `
		UPDATE guilds SET
			xp_enabled = $1,
			announce_channel = $2,
			blocked_categories = $3
		WHERE guild_id = $4
	`

	result, err := r.conn.Exec(ctx, query,
		g.XPEnabled,
		g.AnnounceChannel.Int64(),
		g.BlockedCategories,
		g.GuildID.Int64(),
	)
	if err != nil {
		return fmt.Errorf("failed to update guild: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrGuildNotFound
	}

	return nil
}

// ListIDs returns the IDs of every known guild. Used by the cache
// warming job.
func (r *GuildRepository) ListIDs(ctx context.Context) ([]shared.GuildID, error) {
	rows, err := r.conn.Query(ctx, "SELECT guild_id FROM guilds ORDER BY guild_id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list guilds: %w", err)
	}
	defer rows.Close()

	var ids []shared.GuildID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan guild id: %w", err)
		}
		ids = append(ids, shared.GuildID(id))
	}

	return ids, rows.Err()
}

// TryActivateTempSeason atomically claims the temporary season slot.
// Returns false when another temporary season already holds it. The
// compare-and-set in SQL is what makes concurrent starts single-flight.
func (r *GuildRepository) TryActivateTempSeason(ctx context.Context, guildID shared.GuildID) (bool, error) {
	query := `
		UPDATE guilds SET temp_season_active = TRUE
		WHERE guild_id = $1 AND temp_season_active = FALSE
	`

	result, err := r.conn.Exec(ctx, query, guildID.Int64())
	if err != nil {
		return false, fmt.Errorf("failed to claim temp season slot: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// ClearTempSeason atomically releases the temporary season slot.
// Returns false when no temporary season was running, which lets
// concurrent stops detect that someone else already won.
func (r *GuildRepository) ClearTempSeason(ctx context.Context, guildID shared.GuildID) (bool, error) {
	query := `
		UPDATE guilds SET temp_season_active = FALSE
		WHERE guild_id = $1 AND temp_season_active = TRUE
	`

	result, err := r.conn.Exec(ctx, query, guildID.Int64())
	if err != nil {
		return false, fmt.Errorf("failed to release temp season slot: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func scanGuild(row pgx.Row) (*guild.Guild, error) {
	var g guild.Guild
	var guildID, announceChannel int64

	err := row.Scan(
		&guildID,
		&g.XPEnabled,
		&announceChannel,
		&g.BlockedCategories,
		&g.TempSeasonActive,
		&g.CreatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrGuildNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan guild: %w", err)
	}

	g.GuildID = shared.GuildID(guildID)
	g.AnnounceChannel = shared.ChannelID(announceChannel)

	return &g, nil
}
