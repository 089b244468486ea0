// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/guildhub/guild-xp-hub/internal/domain/leaderboard"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Returns the ranked standings of a guild. Top-of-board reads go through
// the cache; deeper pages always hit the store.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery contains the leaderboard request parameters.
type GetLeaderboardQuery struct {
	// GuildID identifies the guild.
	GuildID shared.GuildID

	// Limit is the number of entries (default 20, max 100).
	Limit int

	// Offset is the pagination offset. Pages are limit-sized, so the
	// offset must land on a page boundary.
	Offset int
}

// Validate checks and normalizes the query parameters.
func (q *GetLeaderboardQuery) Validate() error {
	if !q.GuildID.IsValid() {
		return shared.ErrInvalidGuildID
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: limit cannot be negative", shared.ErrNegativeValue)
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		return fmt.Errorf("%w: offset cannot be negative", shared.ErrNegativeValue)
	}
	if q.Offset%q.Limit != 0 {
		return fmt.Errorf("%w: offset must be a multiple of the limit", shared.ErrInvalidInput)
	}
	return nil
}

// LeaderboardEntryDTO is the outward representation of one ranked row.
type LeaderboardEntryDTO struct {
	// Rank is the 1-based tie-aware position.
	Rank int `json:"rank"`

	// UserID is the member's Discord snowflake.
	UserID int64 `json:"user_id"`

	// XP is the member's experience total.
	XP int64 `json:"xp"`

	// Level is the member's level.
	Level int `json:"level"`
}

// GetLeaderboardResult contains the leaderboard page.
type GetLeaderboardResult struct {
	Entries    []LeaderboardEntryDTO `json:"entries"`
	TotalCount int                   `json:"total_count"`
	FromCache  bool                  `json:"-"`
}

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	lbRepo leaderboard.Repository
	cache  leaderboard.Cache

	cacheTTL time.Duration
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
func NewGetLeaderboardHandler(lbRepo leaderboard.Repository, cache leaderboard.Cache) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		lbRepo:   lbRepo,
		cache:    cache,
		cacheTTL: 30 * time.Second,
	}
}

// Handle returns one leaderboard page. Only offset-zero requests are
// cacheable; the store stays authoritative for everything else.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_leaderboard: validation failed: %w", err)
	}

	total, err := h.lbRepo.GetTotalCount(ctx, q.GuildID)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: failed to count members: %w", err)
	}

	if q.Offset == 0 && h.cache != nil {
		if cached, err := h.cache.GetCachedTop(ctx, q.GuildID, q.Limit); err == nil && cached != nil {
			return &GetLeaderboardResult{
				Entries:    toDTOs(cached),
				TotalCount: total,
				FromCache:  true,
			}, nil
		}
	}

	var entries []*leaderboard.Entry
	if q.Offset == 0 {
		entries, err = h.lbRepo.GetTop(ctx, q.GuildID, q.Limit)
	} else {
		// Validate pinned the offset to a page boundary, so the page
		// index is exact.
		page := shared.NewPagination(q.Offset/q.Limit+1, q.Limit)
		entries, err = h.lbRepo.GetPage(ctx, q.GuildID, page)
	}
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: failed to read standings: %w", err)
	}

	if q.Offset == 0 && h.cache != nil {
		_ = h.cache.SetCachedTop(ctx, q.GuildID, entries, q.Limit, h.cacheTTL)
	}

	return &GetLeaderboardResult{
		Entries:    toDTOs(entries),
		TotalCount: total,
	}, nil
}

func toDTOs(entries []*leaderboard.Entry) []LeaderboardEntryDTO {
	dtos := make([]LeaderboardEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, LeaderboardEntryDTO{
			Rank:   e.Rank.Int(),
			UserID: e.UserID.Int64(),
			XP:     e.XP,
			Level:  e.Level,
		})
	}
	return dtos
}
