package eventhandler

import (
	"context"
	"log/slog"

	"github.com/guildhub/guild-xp-hub/internal/domain/guild"
	"github.com/guildhub/guild-xp-hub/internal/domain/notification"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON TEMP SEASON ENDED HANDLER
// Announces the rollback of an expired temporary season in the guild's
// announcement channel. Manual stops are acknowledged directly by the
// command surface, so only scheduler-driven expiries are announced here.
// ═══════════════════════════════════════════════════════════════════════════

// OnTempSeasonEndedHandler reacts to temporary season expiries.
type OnTempSeasonEndedHandler struct {
	guildRepo guild.Repository
	announcer notification.Announcer

	logger *slog.Logger
}

// NewOnTempSeasonEndedHandler creates a new expiry subscriber.
func NewOnTempSeasonEndedHandler(
	guildRepo guild.Repository,
	announcer notification.Announcer,
	logger *slog.Logger,
) *OnTempSeasonEndedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnTempSeasonEndedHandler{
		guildRepo: guildRepo,
		announcer: announcer,
		logger:    logger.With("handler", "on_temp_season_ended"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnTempSeasonEndedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	ended, ok := event.(shared.TempSeasonEndedEvent)
	if !ok {
		h.logger.Warn("received non-TempSeasonEndedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	if ended.Manual {
		return nil
	}

	g, err := h.guildRepo.Get(ctx, shared.GuildID(ended.GuildID))
	if err != nil {
		h.logger.Error("failed to load guild",
			"guild_id", ended.GuildID,
			"error", err,
		)
		return nil
	}

	if !g.AnnounceChannel.IsSet() {
		return nil
	}

	announcement := notification.TempSeasonEnded(g.AnnounceChannel)
	if err := h.announcer.Announce(ctx, announcement); err != nil {
		h.logger.Error("failed to announce season rollback",
			"guild_id", ended.GuildID,
			"channel_id", g.AnnounceChannel,
			"error", err,
		)
		return nil
	}

	h.logger.Info("season rollback announced",
		"guild_id", ended.GuildID,
	)

	return nil
}

// EventType returns the event type this handler subscribes to.
func (h *OnTempSeasonEndedHandler) EventType() shared.EventType {
	return shared.EventTempSeasonEnded
}
