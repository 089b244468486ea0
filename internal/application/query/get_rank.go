package query

import (
	"context"
	"fmt"

	"github.com/guildhub/guild-xp-hub/internal/domain/leaderboard"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET RANK QUERY
// Returns one member's tie-aware position: one plus the number of members
// with strictly more experience, so equal totals share a rank.
// ══════════════════════════════════════════════════════════════════════════════

// GetRankQuery identifies the member whose rank is requested.
type GetRankQuery struct {
	GuildID shared.GuildID
	UserID  shared.UserID
}

// Validate checks the query parameters.
func (q GetRankQuery) Validate() error {
	if !q.GuildID.IsValid() {
		return shared.ErrInvalidGuildID
	}
	if !q.UserID.IsValid() {
		return shared.ErrInvalidUserID
	}
	return nil
}

// GetRankResult contains the member's standing.
type GetRankResult struct {
	Rank       int   `json:"rank"`
	UserID     int64 `json:"user_id"`
	XP         int64 `json:"xp"`
	Level      int   `json:"level"`
	TotalCount int   `json:"total_count"`
}

// GetRankHandler handles the GetRankQuery.
type GetRankHandler struct {
	lbRepo leaderboard.Repository
}

// NewGetRankHandler creates a new GetRankHandler.
func NewGetRankHandler(lbRepo leaderboard.Repository) *GetRankHandler {
	return &GetRankHandler{lbRepo: lbRepo}
}

// Handle returns the member's rank. Unregistered members report not
// found rather than an implicit last place.
func (h *GetRankHandler) Handle(ctx context.Context, q GetRankQuery) (*GetRankResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_rank: validation failed: %w", err)
	}

	entry, err := h.lbRepo.GetRank(ctx, q.GuildID, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_rank: %w", err)
	}

	total, err := h.lbRepo.GetTotalCount(ctx, q.GuildID)
	if err != nil {
		return nil, fmt.Errorf("get_rank: failed to count members: %w", err)
	}

	return &GetRankResult{
		Rank:       entry.Rank.Int(),
		UserID:     entry.UserID.Int64(),
		XP:         entry.XP,
		Level:      entry.Level,
		TotalCount: total,
	}, nil
}
