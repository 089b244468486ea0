package query

import (
	"context"
	"fmt"
	"time"

	"github.com/guildhub/guild-xp-hub/internal/domain/season"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEASON QUERIES
// Read access to the season archive: the list of a guild's seasons and
// the frozen scores of a single season.
// ══════════════════════════════════════════════════════════════════════════════

// SeasonDTO is the outward representation of one season.
type SeasonDTO struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Temporary bool       `json:"temporary"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// SeasonScoreDTO is one archived standing inside a season.
type SeasonScoreDTO struct {
	UserID  int64 `json:"user_id"`
	Score   int64 `json:"score"`
	Ranking int   `json:"ranking"`
}

// ListSeasonsQuery requests a guild's season history.
type ListSeasonsQuery struct {
	GuildID shared.GuildID
}

// ListSeasonsResult contains the guild's seasons, newest first.
type ListSeasonsResult struct {
	Seasons []SeasonDTO `json:"seasons"`
}

// GetSeasonScoresQuery requests the archived scores of one season.
type GetSeasonScoresQuery struct {
	GuildID shared.GuildID
	Label   string
}

// GetSeasonScoresResult contains the season and its frozen standings.
type GetSeasonScoresResult struct {
	Season SeasonDTO        `json:"season"`
	Scores []SeasonScoreDTO `json:"scores"`
}

// UserHistoryQuery requests a member's standings across seasons.
type UserHistoryQuery struct {
	GuildID shared.GuildID
	UserID  shared.UserID
}

// UserSeasonScoreDTO is one archived standing with its season.
type UserSeasonScoreDTO struct {
	SeasonID string    `json:"season_id"`
	Label    string    `json:"label"`
	Score    int64     `json:"score"`
	Ranking  int       `json:"ranking"`
	Archived time.Time `json:"archived_at"`
}

// UserHistoryResult contains a member's archived standings, newest
// season first.
type UserHistoryResult struct {
	UserID  int64                `json:"user_id"`
	History []UserSeasonScoreDTO `json:"history"`
}

// GetSeasonsHandler handles the season read queries.
type GetSeasonsHandler struct {
	seasonRepo season.Repository
}

// NewGetSeasonsHandler creates a new GetSeasonsHandler.
func NewGetSeasonsHandler(seasonRepo season.Repository) *GetSeasonsHandler {
	return &GetSeasonsHandler{seasonRepo: seasonRepo}
}

// List returns the guild's season history.
func (h *GetSeasonsHandler) List(ctx context.Context, q ListSeasonsQuery) (*ListSeasonsResult, error) {
	if !q.GuildID.IsValid() {
		return nil, fmt.Errorf("list_seasons: validation failed: %w", shared.ErrInvalidGuildID)
	}

	seasons, err := h.seasonRepo.ListByGuild(ctx, q.GuildID)
	if err != nil {
		return nil, fmt.Errorf("list_seasons: failed to read seasons: %w", err)
	}

	dtos := make([]SeasonDTO, 0, len(seasons))
	for _, s := range seasons {
		dtos = append(dtos, toSeasonDTO(s))
	}
	return &ListSeasonsResult{Seasons: dtos}, nil
}

// Scores returns a season's frozen standings by its label.
func (h *GetSeasonsHandler) Scores(ctx context.Context, q GetSeasonScoresQuery) (*GetSeasonScoresResult, error) {
	if !q.GuildID.IsValid() {
		return nil, fmt.Errorf("get_season_scores: validation failed: %w", shared.ErrInvalidGuildID)
	}
	label := shared.NewSeasonLabel(q.Label)
	if label.IsEmpty() {
		return nil, fmt.Errorf("get_season_scores: %w", shared.ErrInvalidSeasonLabel)
	}

	s, err := h.seasonRepo.GetByLabel(ctx, q.GuildID, label)
	if err != nil {
		return nil, fmt.Errorf("get_season_scores: %w", err)
	}

	scores, err := h.seasonRepo.Scores(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("get_season_scores: failed to read scores: %w", err)
	}

	dtos := make([]SeasonScoreDTO, 0, len(scores))
	for _, sc := range scores {
		dtos = append(dtos, SeasonScoreDTO{
			UserID:  sc.UserID.Int64(),
			Score:   sc.Score,
			Ranking: sc.Ranking,
		})
	}
	return &GetSeasonScoresResult{Season: toSeasonDTO(s), Scores: dtos}, nil
}

// History returns a member's archived standings across seasons. A member
// with no archived scores gets an empty history, not an error.
func (h *GetSeasonsHandler) History(ctx context.Context, q UserHistoryQuery) (*UserHistoryResult, error) {
	if !q.GuildID.IsValid() {
		return nil, fmt.Errorf("user_history: validation failed: %w", shared.ErrInvalidGuildID)
	}
	if !q.UserID.IsValid() {
		return nil, fmt.Errorf("user_history: validation failed: %w", shared.ErrInvalidUserID)
	}

	scores, err := h.seasonRepo.UserHistory(ctx, q.GuildID, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("user_history: failed to read history: %w", err)
	}

	dtos := make([]UserSeasonScoreDTO, 0, len(scores))
	for _, sc := range scores {
		dtos = append(dtos, UserSeasonScoreDTO{
			SeasonID: sc.SeasonID.String(),
			Label:    sc.Label.String(),
			Score:    sc.Score,
			Ranking:  sc.Ranking,
			Archived: sc.SeasonCreatedAt,
		})
	}
	return &UserHistoryResult{UserID: q.UserID.Int64(), History: dtos}, nil
}

func toSeasonDTO(s *season.Season) SeasonDTO {
	return SeasonDTO{
		ID:        s.ID.String(),
		Label:     s.Label.String(),
		Temporary: s.IsTemporary(),
		EndsAt:    s.EndsAt,
		CreatedAt: s.CreatedAt,
	}
}
