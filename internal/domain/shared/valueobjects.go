// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique Discord user identifier (snowflake).
type UserID int64

// IsValid checks if the user ID is valid (positive number).
func (u UserID) IsValid() bool {
	return u > 0
}

// Int64 returns the underlying int64 value.
func (u UserID) Int64() int64 {
	return int64(u)
}

// String returns the string representation.
func (u UserID) String() string {
	return fmt.Sprintf("%d", u)
}

// Mention returns the Discord mention form of the user.
func (u UserID) Mention() string {
	return fmt.Sprintf("<@%d>", u)
}

// NewUserID creates a new UserID with validation.
func NewUserID(id int64) (UserID, error) {
	if id <= 0 {
		return 0, ErrInvalidUserID
	}
	return UserID(id), nil
}

// GuildID represents a unique Discord guild identifier (snowflake).
type GuildID int64

// IsValid checks if the guild ID is valid (positive number).
func (g GuildID) IsValid() bool {
	return g > 0
}

// Int64 returns the underlying int64 value.
func (g GuildID) Int64() int64 {
	return int64(g)
}

// String returns the string representation.
func (g GuildID) String() string {
	return fmt.Sprintf("%d", g)
}

// NewGuildID creates a new GuildID with validation.
func NewGuildID(id int64) (GuildID, error) {
	if id <= 0 {
		return 0, ErrInvalidGuildID
	}
	return GuildID(id), nil
}

// ChannelID represents a Discord channel identifier (snowflake).
// Zero means "not set".
type ChannelID int64

// IsSet checks if the channel ID carries a value.
func (c ChannelID) IsSet() bool {
	return c > 0
}

// Int64 returns the underlying int64 value.
func (c ChannelID) Int64() int64 {
	return int64(c)
}

// String returns the string representation.
func (c ChannelID) String() string {
	return fmt.Sprintf("%d", c)
}

// CategoryID represents a Discord channel category identifier (snowflake).
// Zero means the triggering channel has no parent category.
type CategoryID int64

// IsSet checks if the category ID carries a value.
func (c CategoryID) IsSet() bool {
	return c > 0
}

// Int64 returns the underlying int64 value.
func (c CategoryID) Int64() int64 {
	return int64(c)
}

// MembershipAggregateID builds the aggregate identifier for a (user, guild)
// membership. Used as the event aggregate ID and as the dispatch shard key.
func MembershipAggregateID(userID, guildID int64) string {
	return fmt.Sprintf("%d:%d", guildID, userID)
}

// GuildAggregateID builds the aggregate identifier for a guild.
func GuildAggregateID(guildID int64) string {
	return fmt.Sprintf("%d", guildID)
}

// ═══════════════════════════════════════════════════════════════════════════
// Rank Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Rank represents a member's position in the guild leaderboard.
// Members with equal XP share the same rank.
type Rank int

const (
	MinRank  Rank = 1
	Unranked Rank = 0 // Not yet ranked
)

// IsValid checks if the rank is valid.
func (r Rank) IsValid() bool {
	return r >= MinRank
}

// Int returns the underlying int value.
func (r Rank) Int() int {
	return int(r)
}

// IsUnranked checks if the member is not yet ranked.
func (r Rank) IsUnranked() bool {
	return r == Unranked
}

// Medal returns a medal emoji for top ranks.
func (r Rank) Medal() string {
	switch r {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return ""
	}
}

// NewRank creates a new Rank with validation.
func NewRank(position int) (Rank, error) {
	if position < 0 {
		return Unranked, NewDomainError("shared", "NewRank", ErrNegativeValue, "rank cannot be negative")
	}
	return Rank(position), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Season Label Value Object
// ═══════════════════════════════════════════════════════════════════════════

// SeasonLabel represents a season name. Labels are stored lowercased so
// uniqueness checks are case-insensitive.
type SeasonLabel string

// IsEmpty checks if the label is empty after trimming.
func (l SeasonLabel) IsEmpty() bool {
	return strings.TrimSpace(string(l)) == ""
}

// String returns the string representation.
func (l SeasonLabel) String() string {
	return string(l)
}

// NewSeasonLabel normalizes a raw label: trims surrounding whitespace and
// lowercases it. An empty result is allowed; callers decide whether to
// auto-generate a label in that case.
func NewSeasonLabel(raw string) SeasonLabel {
	return SeasonLabel(strings.ToLower(strings.TrimSpace(raw)))
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// DefaultPagination returns default pagination.
func DefaultPagination() Pagination {
	return NewPagination(1, DefaultPageSize)
}
