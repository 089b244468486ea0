// Package eventhandler contains the subscribers wired to the event bus.
// They are the reactive part of the system: they run side effects such
// as guild announcements after a command has already committed its
// state change, so a failed side effect never rolls anything back.
package eventhandler

import (
	"context"
	"log/slog"

	"github.com/guildhub/guild-xp-hub/internal/domain/member"
	"github.com/guildhub/guild-xp-hub/internal/domain/notification"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON LEVEL UP HANDLER
// Announces a member's level-up in the guild's announcement channel.
// The first level always pings and carries the onboarding hint; later
// levels honor the member's ping preference.
// ═══════════════════════════════════════════════════════════════════════════

// OnLevelUpHandler reacts to level-up events by sending the
// congratulation message.
type OnLevelUpHandler struct {
	profileRepo member.ProfileRepository
	announcer   notification.Announcer

	logger *slog.Logger
}

// NewOnLevelUpHandler creates a new level-up subscriber.
func NewOnLevelUpHandler(
	profileRepo member.ProfileRepository,
	announcer notification.Announcer,
	logger *slog.Logger,
) *OnLevelUpHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnLevelUpHandler{
		profileRepo: profileRepo,
		announcer:   announcer,
		logger:      logger.With("handler", "on_level_up"),
	}
}

// Handle implements shared.EventHandler. The announcement is best
// effort: the level itself is already persisted, so delivery failures
// are logged and swallowed.
func (h *OnLevelUpHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	levelUp, ok := event.(shared.LevelUpEvent)
	if !ok {
		h.logger.Warn("received non-LevelUpEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	// Commands only publish level-ups with a destination channel, but a
	// replayed or hand-crafted event may lack one.
	channelID := shared.ChannelID(levelUp.ChannelID)
	if !channelID.IsSet() {
		return nil
	}

	profile, err := h.profileRepo.GetOrCreate(ctx, shared.UserID(levelUp.UserID))
	if err != nil {
		h.logger.Error("failed to load profile",
			"user_id", levelUp.UserID,
			"error", err,
		)
		return nil
	}

	announcement := notification.LevelUp(
		channelID,
		shared.UserID(levelUp.UserID),
		levelUp.NewLevel,
		levelUp.TotalXP,
		profile.PingOnLevelUp,
	)

	if err := h.announcer.Announce(ctx, announcement); err != nil {
		h.logger.Error("failed to announce level up",
			"user_id", levelUp.UserID,
			"guild_id", levelUp.GuildID,
			"channel_id", levelUp.ChannelID,
			"error", err,
		)
		return nil
	}

	h.logger.Debug("level up announced",
		"user_id", levelUp.UserID,
		"guild_id", levelUp.GuildID,
		"new_level", levelUp.NewLevel,
	)

	return nil
}

// EventType returns the event type this handler subscribes to.
func (h *OnLevelUpHandler) EventType() shared.EventType {
	return shared.EventLevelUp
}
