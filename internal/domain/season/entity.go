// Package season contains the season lifecycle: archival snapshots of the
// guild leaderboard, the soft ledger reset, and the temporary season time
// box with its scheduled rollback.
package season

import (
	"time"

	"github.com/google/uuid"

	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// Season is one competition period of a guild. A nil EndsAt means the
// season is a permanent archive; a non-nil EndsAt marks a running
// temporary season with a scheduled expiry.
type Season struct {
	// ID is the season's unique identifier.
	ID uuid.UUID

	// GuildID identifies the owning guild.
	GuildID shared.GuildID

	// Label is the season name, stored lowercased. Unique per guild.
	Label shared.SeasonLabel

	// EndsAt is the scheduled expiry of a temporary season. Nil for
	// permanent seasons.
	EndsAt *time.Time

	// CreatedAt is when the season was created.
	CreatedAt time.Time
}

// NewSeason creates a permanent season.
func NewSeason(guildID shared.GuildID, label shared.SeasonLabel) (*Season, error) {
	if !guildID.IsValid() {
		return nil, shared.ErrInvalidGuildID
	}
	if label.IsEmpty() {
		return nil, shared.ErrInvalidSeasonLabel
	}
	return &Season{
		ID:        uuid.New(),
		GuildID:   guildID,
		Label:     label,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NewTemporarySeason creates a temporary season expiring after the given
// duration. The duration must already be validated with ParseDuration.
func NewTemporarySeason(guildID shared.GuildID, label shared.SeasonLabel, duration time.Duration) (*Season, error) {
	s, err := NewSeason(guildID, label)
	if err != nil {
		return nil, err
	}
	endsAt := time.Now().UTC().Add(duration)
	s.EndsAt = &endsAt
	return s, nil
}

// IsTemporary reports whether the season is a running temporary season.
func (s *Season) IsTemporary() bool {
	return s.EndsAt != nil
}

// Expired reports whether a temporary season has passed its end time.
// Permanent seasons never expire.
func (s *Season) Expired(now time.Time) bool {
	return s.EndsAt != nil && !now.Before(*s.EndsAt)
}

// MakePermanent clears the scheduled expiry, turning the season into a
// regular archive row.
func (s *Season) MakePermanent() {
	s.EndsAt = nil
}

// Rename changes the label. The new label must be non-empty; uniqueness
// is enforced by the repository.
func (s *Season) Rename(label shared.SeasonLabel) error {
	if label.IsEmpty() {
		return shared.ErrInvalidSeasonLabel
	}
	s.Label = label
	return nil
}

// UserSeasonScore is one member's archived standing joined with the
// season it belongs to. Read model for a member's cross-season history.
type UserSeasonScore struct {
	// SeasonID identifies the season.
	SeasonID uuid.UUID

	// Label is the season's name.
	Label shared.SeasonLabel

	// Score is the member's total XP at snapshot time.
	Score int64

	// Ranking is the member's 1-based position at snapshot time.
	Ranking int

	// SeasonCreatedAt is when the season was created.
	SeasonCreatedAt time.Time
}

// Score is one member's archived standing inside a season. Immutable once
// written.
type Score struct {
	// SeasonID identifies the season the snapshot belongs to.
	SeasonID uuid.UUID

	// UserID identifies the member.
	UserID shared.UserID

	// Score is the member's total XP at snapshot time.
	Score int64

	// Ranking is the member's 1-based position at snapshot time.
	Ranking int
}
