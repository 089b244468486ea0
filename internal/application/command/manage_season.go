package command

import (
	"context"
	"fmt"

	"github.com/guildhub/guild-xp-hub/internal/domain/season"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE SEASON COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// DeleteSeasonCommand removes an archived season and its scores.
type DeleteSeasonCommand struct {
	GuildID shared.GuildID
	Label   string
}

// Validate validates the command.
func (c DeleteSeasonCommand) Validate() error {
	if !c.GuildID.IsValid() {
		return shared.ErrInvalidGuildID
	}
	if shared.NewSeasonLabel(c.Label).IsEmpty() {
		return shared.ErrInvalidSeasonLabel
	}
	return nil
}

// DeleteSeasonHandler handles the DeleteSeasonCommand.
type DeleteSeasonHandler struct {
	seasonRepo season.Repository
}

// NewDeleteSeasonHandler creates a new DeleteSeasonHandler.
func NewDeleteSeasonHandler(seasonRepo season.Repository) *DeleteSeasonHandler {
	return &DeleteSeasonHandler{seasonRepo: seasonRepo}
}

// Handle deletes the season and its archived scores in one transaction.
func (h *DeleteSeasonHandler) Handle(ctx context.Context, cmd DeleteSeasonCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("delete_season: validation failed: %w", err)
	}

	s, err := h.seasonRepo.GetByLabel(ctx, cmd.GuildID, shared.NewSeasonLabel(cmd.Label))
	if err != nil {
		return fmt.Errorf("delete_season: %w", err)
	}

	if err := h.seasonRepo.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("delete_season: failed to delete: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RENAME SEASON COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// RenameSeasonCommand changes a season's label.
type RenameSeasonCommand struct {
	GuildID  shared.GuildID
	Label    string
	NewLabel string
}

// Validate validates the command.
func (c RenameSeasonCommand) Validate() error {
	if !c.GuildID.IsValid() {
		return shared.ErrInvalidGuildID
	}
	if shared.NewSeasonLabel(c.Label).IsEmpty() || shared.NewSeasonLabel(c.NewLabel).IsEmpty() {
		return shared.ErrInvalidSeasonLabel
	}
	return nil
}

// RenameSeasonHandler handles the RenameSeasonCommand.
type RenameSeasonHandler struct {
	seasonRepo season.Repository
}

// NewRenameSeasonHandler creates a new RenameSeasonHandler.
func NewRenameSeasonHandler(seasonRepo season.Repository) *RenameSeasonHandler {
	return &RenameSeasonHandler{seasonRepo: seasonRepo}
}

// Handle renames the season. Label comparison is case-insensitive, so a
// rename that only changes letter case is allowed, while colliding with a
// different season fails.
func (h *RenameSeasonHandler) Handle(ctx context.Context, cmd RenameSeasonCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("rename_season: validation failed: %w", err)
	}

	oldLabel := shared.NewSeasonLabel(cmd.Label)
	newLabel := shared.NewSeasonLabel(cmd.NewLabel)

	s, err := h.seasonRepo.GetByLabel(ctx, cmd.GuildID, oldLabel)
	if err != nil {
		return fmt.Errorf("rename_season: %w", err)
	}

	if newLabel != oldLabel {
		taken, err := h.seasonRepo.LabelExists(ctx, cmd.GuildID, newLabel)
		if err != nil {
			return fmt.Errorf("rename_season: failed to check label: %w", err)
		}
		if taken {
			return fmt.Errorf("rename_season: %w", shared.ErrSeasonLabelTaken)
		}
	}

	if err := h.seasonRepo.Rename(ctx, s.ID, newLabel); err != nil {
		return fmt.Errorf("rename_season: failed to rename: %w", err)
	}
	return nil
}
