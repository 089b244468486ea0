package command

import (
	"context"
	"fmt"

	"github.com/guildhub/guild-xp-hub/internal/domain/guild"
	"github.com/guildhub/guild-xp-hub/internal/domain/member"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GUILD SETTINGS COMMANDS
// Moderator toggles: the guild experience switch, the announcement
// channel, category blocks, per-member blocks, and the per-user ping
// preference. All of these are small single-row writes.
// ══════════════════════════════════════════════════════════════════════════════

// SetXPEnabledCommand flips the guild's experience switch.
type SetXPEnabledCommand struct {
	GuildID shared.GuildID
	Enabled bool
}

// SetAnnounceChannelCommand changes where announcements go. A zero
// channel clears it, silencing announcements.
type SetAnnounceChannelCommand struct {
	GuildID   shared.GuildID
	ChannelID shared.ChannelID
}

// SetCategoryBlockedCommand adds or removes a category block.
type SetCategoryBlockedCommand struct {
	GuildID    shared.GuildID
	CategoryID shared.CategoryID
	Blocked    bool
}

// SetMemberBlockedCommand flips a member's experience block.
type SetMemberBlockedCommand struct {
	GuildID shared.GuildID
	UserID  shared.UserID
	Blocked bool
}

// SetPingPreferenceCommand flips a user's level-up ping preference.
type SetPingPreferenceCommand struct {
	UserID shared.UserID
	Ping   bool
}

// GuildSettingsHandler handles the settings commands.
type GuildSettingsHandler struct {
	guildRepo   guild.Repository
	memberRepo  member.Repository
	profileRepo member.ProfileRepository
}

// NewGuildSettingsHandler creates a new GuildSettingsHandler.
func NewGuildSettingsHandler(
	guildRepo guild.Repository,
	memberRepo member.Repository,
	profileRepo member.ProfileRepository,
) *GuildSettingsHandler {
	return &GuildSettingsHandler{
		guildRepo:   guildRepo,
		memberRepo:  memberRepo,
		profileRepo: profileRepo,
	}
}

// SetXPEnabled flips the guild experience switch.
func (h *GuildSettingsHandler) SetXPEnabled(ctx context.Context, cmd SetXPEnabledCommand) error {
	g, err := h.guildRepo.GetOrCreate(ctx, cmd.GuildID)
	if err != nil {
		return fmt.Errorf("set_xp_enabled: failed to load guild: %w", err)
	}
	g.SetXPEnabled(cmd.Enabled)
	if err := h.guildRepo.Update(ctx, g); err != nil {
		return fmt.Errorf("set_xp_enabled: failed to persist: %w", err)
	}
	return nil
}

// SetAnnounceChannel changes the announcement channel.
func (h *GuildSettingsHandler) SetAnnounceChannel(ctx context.Context, cmd SetAnnounceChannelCommand) error {
	g, err := h.guildRepo.GetOrCreate(ctx, cmd.GuildID)
	if err != nil {
		return fmt.Errorf("set_announce_channel: failed to load guild: %w", err)
	}
	g.SetAnnounceChannel(cmd.ChannelID)
	if err := h.guildRepo.Update(ctx, g); err != nil {
		return fmt.Errorf("set_announce_channel: failed to persist: %w", err)
	}
	return nil
}

// SetCategoryBlocked adds or removes a category from the block list.
func (h *GuildSettingsHandler) SetCategoryBlocked(ctx context.Context, cmd SetCategoryBlockedCommand) error {
	g, err := h.guildRepo.GetOrCreate(ctx, cmd.GuildID)
	if err != nil {
		return fmt.Errorf("set_category_blocked: failed to load guild: %w", err)
	}

	if cmd.Blocked {
		err = g.BlockCategory(cmd.CategoryID)
	} else {
		err = g.UnblockCategory(cmd.CategoryID)
	}
	if err != nil {
		return fmt.Errorf("set_category_blocked: %w", err)
	}

	if err := h.guildRepo.Update(ctx, g); err != nil {
		return fmt.Errorf("set_category_blocked: failed to persist: %w", err)
	}
	return nil
}

// SetMemberBlocked flips a member's experience block flag. The membership
// is created lazily so a member can be blocked before their first event.
func (h *GuildSettingsHandler) SetMemberBlocked(ctx context.Context, cmd SetMemberBlockedCommand) error {
	if _, err := h.memberRepo.GetOrCreate(ctx, cmd.UserID, cmd.GuildID); err != nil {
		return fmt.Errorf("set_member_blocked: failed to load membership: %w", err)
	}
	if err := h.memberRepo.SetBlocked(ctx, cmd.UserID, cmd.GuildID, cmd.Blocked); err != nil {
		return fmt.Errorf("set_member_blocked: failed to persist: %w", err)
	}
	return nil
}

// SetPingPreference flips a user's level-up ping preference.
func (h *GuildSettingsHandler) SetPingPreference(ctx context.Context, cmd SetPingPreferenceCommand) error {
	if _, err := h.profileRepo.GetOrCreate(ctx, cmd.UserID); err != nil {
		return fmt.Errorf("set_ping_preference: failed to load profile: %w", err)
	}
	if err := h.profileRepo.SetPingOnLevelUp(ctx, cmd.UserID, cmd.Ping); err != nil {
		return fmt.Errorf("set_ping_preference: failed to persist: %w", err)
	}
	return nil
}
