package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/guildhub/guild-xp-hub/internal/domain/season"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEASON REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SeasonRepository implements season.Repository for PostgreSQL.
type SeasonRepository struct {
	conn *Connection
}

// NewSeasonRepository creates a new SeasonRepository.
func NewSeasonRepository(conn *Connection) *SeasonRepository {
	return &SeasonRepository{conn: conn}
}

const seasonColumns = `id, guild_id, label, ends_at, created_at`

// snapshotScoresQuery freezes the standings under a season. Unlike the
// live leaderboard, archived rankings are positional: ROW_NUMBER with a
// user_id tie-break gives every row a unique 1-based place.
const snapshotScoresQuery = `
	INSERT INTO season_scores (season_id, user_id, score, ranking)
	SELECT $1, user_id, xp, ROW_NUMBER() OVER (ORDER BY xp DESC, user_id ASC)
	FROM memberships
	WHERE guild_id = $2
`

// CreateWithSnapshot inserts the season, archives the current standings
// under it, and soft-resets the guild ledger, all in one transaction.
func (r *SeasonRepository) CreateWithSnapshot(ctx context.Context, s *season.Season) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if err := insertSeason(ctx, tx, s); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, snapshotScoresQuery, s.ID, s.GuildID.Int64()); err != nil {
			return fmt.Errorf("failed to archive standings: %w", err)
		}

		resetQuery := `
			UPDATE memberships SET xp = 0, level = 0
			WHERE guild_id = $1
		`
		if _, err := tx.Exec(ctx, resetQuery, s.GuildID.Int64()); err != nil {
			return fmt.Errorf("failed to reset ledger: %w", err)
		}

		return nil
	})
}

// Create inserts a season row without touching the ledger.
func (r *SeasonRepository) Create(ctx context.Context, s *season.Season) error {
	return insertSeason(ctx, r.conn, s)
}

func insertSeason(ctx context.Context, q Querier, s *season.Season) error {
	query := `
		INSERT INTO seasons (id, guild_id, label, ends_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := q.Exec(ctx, query,
		s.ID,
		s.GuildID.Int64(),
		s.Label.String(),
		s.EndsAt,
		s.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrSeasonLabelTaken
		}
		return fmt.Errorf("failed to insert season: %w", err)
	}

	return nil
}

// GetByID returns a season by ID.
func (r *SeasonRepository) GetByID(ctx context.Context, id uuid.UUID) (*season.Season, error) {
	query := `
		SELECT ` + seasonColumns + `
		FROM seasons
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id)
	return scanSeason(row)
}

// GetByLabel returns a guild's season by its lowercased label.
func (r *SeasonRepository) GetByLabel(ctx context.Context, guildID shared.GuildID, label shared.SeasonLabel) (*season.Season, error) {
	query := `
		SELECT ` + seasonColumns + `
		FROM seasons
		WHERE guild_id = $1 AND label = $2
	`

	row := r.conn.QueryRow(ctx, query, guildID.Int64(), label.String())
	return scanSeason(row)
}

// ListByGuild returns a guild's seasons, newest first.
func (r *SeasonRepository) ListByGuild(ctx context.Context, guildID shared.GuildID) ([]*season.Season, error) {
	query := `
		SELECT ` + seasonColumns + `
		FROM seasons
		WHERE guild_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.conn.Query(ctx, query, guildID.Int64())
	if err != nil {
		return nil, fmt.Errorf("failed to query seasons: %w", err)
	}
	defer rows.Close()

	var seasons []*season.Season
	for rows.Next() {
		s, err := scanSeason(rows)
		if err != nil {
			return nil, err
		}
		seasons = append(seasons, s)
	}

	return seasons, rows.Err()
}

// CountByGuild returns how many seasons a guild has.
func (r *SeasonRepository) CountByGuild(ctx context.Context, guildID shared.GuildID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM seasons WHERE guild_id = $1",
		guildID.Int64(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count seasons: %w", err)
	}
	return count, nil
}

// LabelExists checks whether a guild already has a season with the label.
func (r *SeasonRepository) LabelExists(ctx context.Context, guildID shared.GuildID, label shared.SeasonLabel) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM seasons WHERE guild_id = $1 AND label = $2)",
		guildID.Int64(),
		label.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check season label: %w", err)
	}
	return exists, nil
}

// Rename updates a season's label.
func (r *SeasonRepository) Rename(ctx context.Context, id uuid.UUID, label shared.SeasonLabel) error {
	query := `UPDATE seasons SET label = $1 WHERE id = $2`

	result, err := r.conn.Exec(ctx, query, label.String(), id)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrSeasonLabelTaken
		}
		return fmt.Errorf("failed to rename season: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrSeasonNotFound
	}

	return nil
}

// Delete removes a season; its archived scores go with it via the
// foreign key cascade.
func (r *SeasonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM seasons WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete season: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrSeasonNotFound
	}

	return nil
}

// MakePermanent clears a temporary season's scheduled expiry.
func (r *SeasonRepository) MakePermanent(ctx context.Context, id uuid.UUID) error {
	result, err := r.conn.Exec(ctx, "UPDATE seasons SET ends_at = NULL WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to make season permanent: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrSeasonNotFound
	}

	return nil
}

// GetActiveTemporary returns the guild's running temporary season.
func (r *SeasonRepository) GetActiveTemporary(ctx context.Context, guildID shared.GuildID) (*season.Season, error) {
	query := `
		SELECT ` + seasonColumns + `
		FROM seasons
		WHERE guild_id = $1 AND ends_at IS NOT NULL
		ORDER BY created_at DESC
		LIMIT 1
	`

	row := r.conn.QueryRow(ctx, query, guildID.Int64())
	return scanSeason(row)
}

// ListExpiredTemporary returns every temporary season whose end time has
// passed at the given instant.
func (r *SeasonRepository) ListExpiredTemporary(ctx context.Context, now time.Time) ([]*season.Season, error) {
	query := `
		SELECT ` + seasonColumns + `
		FROM seasons
		WHERE ends_at IS NOT NULL AND ends_at <= $1
		ORDER BY ends_at ASC
	`

	rows, err := r.conn.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired seasons: %w", err)
	}
	defer rows.Close()

	var seasons []*season.Season
	for rows.Next() {
		s, err := scanSeason(rows)
		if err != nil {
			return nil, err
		}
		seasons = append(seasons, s)
	}

	return seasons, rows.Err()
}

// Scores returns a season's archived scores ordered by ranking.
func (r *SeasonRepository) Scores(ctx context.Context, seasonID uuid.UUID) ([]season.Score, error) {
	query := `
		SELECT season_id, user_id, score, ranking
		FROM season_scores
		WHERE season_id = $1
		ORDER BY ranking ASC, user_id ASC
	`

	rows, err := r.conn.Query(ctx, query, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query season scores: %w", err)
	}
	defer rows.Close()

	var scores []season.Score
	for rows.Next() {
		var sc season.Score
		var userID int64

		if err := rows.Scan(&sc.SeasonID, &userID, &sc.Score, &sc.Ranking); err != nil {
			return nil, fmt.Errorf("failed to scan season score: %w", err)
		}

		sc.UserID = shared.UserID(userID)
		scores = append(scores, sc)
	}

	return scores, rows.Err()
}

// UserHistory returns a member's archived standings across the guild's
// seasons, newest season first.
func (r *SeasonRepository) UserHistory(ctx context.Context, guildID shared.GuildID, userID shared.UserID) ([]season.UserSeasonScore, error) {
	query := `
		SELECT sc.season_id, s.label, sc.score, sc.ranking, s.created_at
		FROM season_scores sc
		JOIN seasons s ON s.id = sc.season_id
		WHERE s.guild_id = $1 AND sc.user_id = $2
		ORDER BY s.created_at DESC
	`

	rows, err := r.conn.Query(ctx, query, guildID.Int64(), userID.Int64())
	if err != nil {
		return nil, fmt.Errorf("failed to query user history: %w", err)
	}
	defer rows.Close()

	var history []season.UserSeasonScore
	for rows.Next() {
		var h season.UserSeasonScore
		var label string

		if err := rows.Scan(&h.SeasonID, &label, &h.Score, &h.Ranking, &h.SeasonCreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user history: %w", err)
		}

		h.Label = shared.NewSeasonLabel(label)
		history = append(history, h)
	}

	return history, rows.Err()
}

func scanSeason(row pgx.Row) (*season.Season, error) {
	var s season.Season
	var guildID int64
	var label string

	err := row.Scan(
		&s.ID,
		&guildID,
		&label,
		&s.EndsAt,
		&s.CreatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrSeasonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan season: %w", err)
	}

	s.GuildID = shared.GuildID(guildID)
	s.Label = shared.NewSeasonLabel(label)

	return &s, nil
}
