package command

import (
	"context"
	"fmt"
	"strconv"

	"github.com/guildhub/guild-xp-hub/internal/domain/leaderboard"
	"github.com/guildhub/guild-xp-hub/internal/domain/season"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE SEASON COMMAND
// Archives the current standings under a new season and soft-resets every
// membership of the guild to zero.
// ══════════════════════════════════════════════════════════════════════════════

// CreateSeasonCommand contains the data to archive a season.
type CreateSeasonCommand struct {
	// GuildID identifies the guild.
	GuildID shared.GuildID

	// Label is the requested season name. Empty means auto-number.
	Label string
}

// Validate validates the command.
func (c CreateSeasonCommand) Validate() error {
	if !c.GuildID.IsValid() {
		return shared.ErrInvalidGuildID
	}
	return nil
}

// CreateSeasonResult describes the archived season.
type CreateSeasonResult struct {
	// SeasonID is the new season's identifier.
	SeasonID string

	// Label is the label the season ended up with.
	Label string
}

// CreateSeasonHandler handles the CreateSeasonCommand.
type CreateSeasonHandler struct {
	seasonRepo     season.Repository
	cache          leaderboard.Cache
	eventPublisher shared.EventPublisher
}

// NewCreateSeasonHandler creates a new CreateSeasonHandler.
func NewCreateSeasonHandler(
	seasonRepo season.Repository,
	cache leaderboard.Cache,
	eventPublisher shared.EventPublisher,
) *CreateSeasonHandler {
	return &CreateSeasonHandler{
		seasonRepo:     seasonRepo,
		cache:          cache,
		eventPublisher: eventPublisher,
	}
}

// Handle archives the season. An empty label is auto-numbered from the
// guild's season count, bumping past collisions. The snapshot and the
// ledger reset happen in one storage transaction.
func (h *CreateSeasonHandler) Handle(ctx context.Context, cmd CreateSeasonCommand) (*CreateSeasonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_season: validation failed: %w", err)
	}

	label := shared.NewSeasonLabel(cmd.Label)
	if label.IsEmpty() {
		auto, err := nextAutoLabel(ctx, h.seasonRepo, cmd.GuildID)
		if err != nil {
			return nil, fmt.Errorf("create_season: failed to pick label: %w", err)
		}
		label = auto
	}

	s, err := season.NewSeason(cmd.GuildID, label)
	if err != nil {
		return nil, fmt.Errorf("create_season: %w", err)
	}

	if err := h.seasonRepo.CreateWithSnapshot(ctx, s); err != nil {
		return nil, fmt.Errorf("create_season: failed to archive: %w", err)
	}

	// The ledger just reset; cached standings are stale.
	if h.cache != nil {
		_ = h.cache.Invalidate(ctx, cmd.GuildID)
	}

	_ = h.eventPublisher.Publish(shared.NewSeasonCreatedEvent(
		s.ID.String(), cmd.GuildID.Int64(), label.String(), false,
	))

	return &CreateSeasonResult{SeasonID: s.ID.String(), Label: label.String()}, nil
}

// nextAutoLabel numbers a season from the guild's archive size, walking
// forward past labels that are already taken.
func nextAutoLabel(ctx context.Context, repo season.Repository, guildID shared.GuildID) (shared.SeasonLabel, error) {
	count, err := repo.CountByGuild(ctx, guildID)
	if err != nil {
		return "", err
	}

	for n := count + 1; ; n++ {
		label := shared.NewSeasonLabel(strconv.Itoa(n))
		taken, err := repo.LabelExists(ctx, guildID, label)
		if err != nil {
			return "", err
		}
		if !taken {
			return label, nil
		}
	}
}
