package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/guildhub/guild-xp-hub/internal/domain/leaderboard"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// Ranked reads over the live memberships table. All ranking math happens
// in SQL so the store stays the single source of truth.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// rankedQuery computes the tie-aware rank for every member of a guild.
// RANK() gives equal XP a shared rank and resumes at the positional
// index after a tie group.
const rankedQuery = `
	SELECT user_id, xp, level, last_activity_at,
		   RANK() OVER (ORDER BY xp DESC) AS ranking
	FROM memberships
	WHERE guild_id = $1
`

// GetTop returns the first limit entries of a guild's leaderboard.
func (r *LeaderboardRepository) GetTop(ctx context.Context, guildID shared.GuildID, limit int) ([]*leaderboard.Entry, error) {
	query := rankedQuery + `
		ORDER BY xp DESC, user_id ASC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, guildID.Int64(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetPage returns one page of the leaderboard.
func (r *LeaderboardRepository) GetPage(ctx context.Context, guildID shared.GuildID, p shared.Pagination) ([]*leaderboard.Entry, error) {
	query := rankedQuery + `
		ORDER BY xp DESC, user_id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.conn.Query(ctx, query, guildID.Int64(), p.Limit(), p.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard page: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetRank returns a member's entry with their tie-aware rank: one plus
// the number of members with strictly more experience.
func (r *LeaderboardRepository) GetRank(ctx context.Context, guildID shared.GuildID, userID shared.UserID) (*leaderboard.Entry, error) {
	query := `
		SELECT m.user_id, m.xp, m.level, m.last_activity_at,
			   1 + (SELECT COUNT(*) FROM memberships o
					WHERE o.guild_id = m.guild_id AND o.xp > m.xp) AS ranking
		FROM memberships m
		WHERE m.guild_id = $1 AND m.user_id = $2
	`

	row := r.conn.QueryRow(ctx, query, guildID.Int64(), userID.Int64())
	entry, err := scanEntry(row)
	if err != nil && IsNoRows(err) {
		return nil, shared.ErrMemberNotFound
	}
	return entry, err
}

// GetStandings returns the complete ranked standings of a guild.
func (r *LeaderboardRepository) GetStandings(ctx context.Context, guildID shared.GuildID) (*leaderboard.Standings, error) {
	query := rankedQuery + `
		ORDER BY xp DESC, user_id ASC
	`

	rows, err := r.conn.Query(ctx, query, guildID.Int64())
	if err != nil {
		return nil, fmt.Errorf("failed to query standings: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}

	standings := leaderboard.NewStandings()
	for _, entry := range entries {
		if err := standings.Add(entry); err != nil {
			return nil, fmt.Errorf("failed to build standings: %w", err)
		}
	}

	return standings, nil
}

// GetTotalCount returns the number of ranked members in a guild.
func (r *LeaderboardRepository) GetTotalCount(ctx context.Context, guildID shared.GuildID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM memberships WHERE guild_id = $1",
		guildID.Int64(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ranked members: %w", err)
	}
	return count, nil
}

func scanEntry(row pgx.Row) (*leaderboard.Entry, error) {
	var e leaderboard.Entry
	var userID int64
	var ranking int

	err := row.Scan(
		&userID,
		&e.XP,
		&e.Level,
		&e.UpdatedAt,
		&ranking,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
	}

	e.UserID = shared.UserID(userID)
	e.Rank = shared.Rank(ranking)

	return &e, nil
}

func scanEntries(rows pgx.Rows) ([]*leaderboard.Entry, error) {
	var entries []*leaderboard.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
