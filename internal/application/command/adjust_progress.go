package command

import (
	"context"
	"fmt"

	"github.com/guildhub/guild-xp-hub/internal/domain/member"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADJUST PROGRESS COMMAND
// Manual corrections by moderators: give or take experience or whole
// levels. These bypass eligibility entirely but keep the (xp, level) pair
// consistent with the curve, never announce, and never touch the gain
// cooldown.
// ══════════════════════════════════════════════════════════════════════════════

// AdjustKind selects what a manual adjustment changes.
type AdjustKind string

const (
	// AdjustXP applies a signed experience delta.
	AdjustXP AdjustKind = "xp"

	// AdjustLevel applies a signed level delta.
	AdjustLevel AdjustKind = "level"
)

// AdjustProgressCommand contains a manual progression correction.
type AdjustProgressCommand struct {
	// UserID identifies the member.
	UserID shared.UserID

	// GuildID identifies the guild.
	GuildID shared.GuildID

	// Kind selects the adjustment dimension.
	Kind AdjustKind

	// Delta is the signed change. For AdjustLevel only the int range is
	// meaningful.
	Delta int64
}

// Validate validates the command.
func (c AdjustProgressCommand) Validate() error {
	if !c.UserID.IsValid() {
		return shared.ErrInvalidUserID
	}
	if !c.GuildID.IsValid() {
		return shared.ErrInvalidGuildID
	}
	if c.Kind != AdjustXP && c.Kind != AdjustLevel {
		return shared.NewDomainError("member", "Adjust", shared.ErrInvalidInput, "unknown adjustment kind")
	}
	if c.Delta == 0 {
		return shared.ErrInvalidXPAmount
	}
	return nil
}

// AdjustProgressResult contains the member's state after the correction.
type AdjustProgressResult struct {
	XP    int64
	Level int
}

// AdjustProgressHandler handles the AdjustProgressCommand.
type AdjustProgressHandler struct {
	memberRepo member.Repository
}

// NewAdjustProgressHandler creates a new AdjustProgressHandler.
func NewAdjustProgressHandler(memberRepo member.Repository) *AdjustProgressHandler {
	return &AdjustProgressHandler{memberRepo: memberRepo}
}

// Handle applies the correction. Unregistered members are refused rather
// than auto-created; blocked members are refused with no mutation.
func (h *AdjustProgressHandler) Handle(ctx context.Context, cmd AdjustProgressCommand) (*AdjustProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("adjust_progress: validation failed: %w", err)
	}

	m, err := h.memberRepo.Get(ctx, cmd.UserID, cmd.GuildID)
	if err != nil {
		return nil, fmt.Errorf("adjust_progress: failed to load membership: %w", err)
	}

	switch cmd.Kind {
	case AdjustXP:
		err = m.AdjustXP(cmd.Delta)
	case AdjustLevel:
		err = m.AdjustLevel(int(cmd.Delta))
	}
	if err != nil {
		return nil, fmt.Errorf("adjust_progress: %w", err)
	}

	if err := h.memberRepo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("adjust_progress: failed to persist adjustment: %w", err)
	}

	return &AdjustProgressResult{XP: m.XP, Level: m.Level}, nil
}
