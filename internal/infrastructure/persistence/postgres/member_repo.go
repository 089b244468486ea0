package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/guildhub/guild-xp-hub/internal/domain/member"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MEMBERSHIP REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MembershipRepository implements member.Repository for PostgreSQL.
type MembershipRepository struct {
	conn *Connection
}

// NewMembershipRepository creates a new MembershipRepository.
func NewMembershipRepository(conn *Connection) *MembershipRepository {
	return &MembershipRepository{conn: conn}
}

const membershipColumns = `user_id, guild_id, xp, level, last_activity_at, xp_blocked`

// Get returns the membership for a (user, guild) pair.
func (r *MembershipRepository) Get(ctx context.Context, userID shared.UserID, guildID shared.GuildID) (*member.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE user_id = $1 AND guild_id = $2
	`

	row := r.conn.QueryRow(ctx, query, userID.Int64(), guildID.Int64())
	return scanMembership(row)
}

// GetOrCreate returns the membership, inserting a fresh level-zero row if
// none exists. The upsert keeps concurrent first-message races harmless.
func (r *MembershipRepository) GetOrCreate(ctx context.Context, userID shared.UserID, guildID shared.GuildID) (*member.Membership, error) {
	query := `
		INSERT INTO memberships (user_id, guild_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, guild_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING ` + membershipColumns

	row := r.conn.QueryRow(ctx, query, userID.Int64(), guildID.Int64())
	return scanMembership(row)
}

// Update persists the membership's progression fields.
func (r *MembershipRepository) Update(ctx context.Context, m *member.Membership) error {
	query := `
		UPDATE memberships SET
			xp = $1,
			level = $2,
			last_activity_at = $3,
			xp_blocked = $4
		WHERE user_id = $5 AND guild_id = $6
	`

	result, err := r.conn.Exec(ctx, query,
		m.XP,
		m.Level,
		m.LastActivityAt,
		m.XPBlocked,
		m.UserID.Int64(),
		m.GuildID.Int64(),
	)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrMemberNotFound
	}

	return nil
}

// SetBlocked flips the experience block flag.
func (r *MembershipRepository) SetBlocked(ctx context.Context, userID shared.UserID, guildID shared.GuildID, blocked bool) error {
	query := `
		UPDATE memberships SET xp_blocked = $1
		WHERE user_id = $2 AND guild_id = $3
	`

	result, err := r.conn.Exec(ctx, query, blocked, userID.Int64(), guildID.Int64())
	if err != nil {
		return fmt.Errorf("failed to set block flag: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrMemberNotFound
	}

	return nil
}

// ListByGuild returns all memberships of a guild ordered by XP descending.
func (r *MembershipRepository) ListByGuild(ctx context.Context, guildID shared.GuildID) ([]*member.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE guild_id = $1
		ORDER BY xp DESC, user_id ASC
	`

	rows, err := r.conn.Query(ctx, query, guildID.Int64())
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*member.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}

	return memberships, rows.Err()
}

// CountByGuild returns the number of memberships in a guild.
func (r *MembershipRepository) CountByGuild(ctx context.Context, guildID shared.GuildID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM memberships WHERE guild_id = $1",
		guildID.Int64(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count memberships: %w", err)
	}
	return count, nil
}

func scanMembership(row pgx.Row) (*member.Membership, error) {
	var m member.Membership
	var userID, guildID int64

	err := row.Scan(
		&userID,
		&guildID,
		&m.XP,
		&m.Level,
		&m.LastActivityAt,
		&m.XPBlocked,
	)

	if IsNoRows(err) {
		return nil, shared.ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan membership: %w", err)
	}

	m.UserID = shared.UserID(userID)
	m.GuildID = shared.GuildID(guildID)

	return &m, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements member.ProfileRepository for PostgreSQL.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

// GetOrCreate returns the profile, inserting defaults if none exists.
func (r *ProfileRepository) GetOrCreate(ctx context.Context, userID shared.UserID) (*member.Profile, error) {
	query := `
		INSERT INTO profiles (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, ping_on_level_up, created_at
	`

	var p member.Profile
	var id int64

	err := r.conn.QueryRow(ctx, query, userID.Int64()).Scan(
		&id,
		&p.PingOnLevelUp,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create profile: %w", err)
	}

	p.UserID = shared.UserID(id)
	return &p, nil
}

// SetPingOnLevelUp updates the announcement ping preference.
func (r *ProfileRepository) SetPingOnLevelUp(ctx context.Context, userID shared.UserID, ping bool) error {
	query := `UPDATE profiles SET ping_on_level_up = $1 WHERE user_id = $2`

	result, err := r.conn.Exec(ctx, query, ping, userID.Int64())
	if err != nil {
		return fmt.Errorf("failed to update ping preference: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}

	return nil
}
