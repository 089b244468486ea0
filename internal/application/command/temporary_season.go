package command

import (
	"context"
	"fmt"
	"time"

	"github.com/guildhub/guild-xp-hub/internal/domain/guild"
	"github.com/guildhub/guild-xp-hub/internal/domain/season"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEMPORARY SEASON COMMANDS
// A temporary season is a time box layered on top of the live ledger: it
// does not snapshot or reset anything, it only schedules the rollback.
// At most one runs per guild; the guild flag is the single-flight guard.
// ══════════════════════════════════════════════════════════════════════════════

// StartTemporarySeasonCommand starts a time-boxed season.
type StartTemporarySeasonCommand struct {
	// GuildID identifies the guild.
	GuildID shared.GuildID

	// Label is the requested name. Empty means auto-number.
	Label string

	// Duration is the compound duration string, e.g. "1d12h".
	Duration string
}

// Validate validates the command. The duration is parsed here so a
// malformed string is rejected before any mutation.
func (c StartTemporarySeasonCommand) Validate() error {
	if !c.GuildID.IsValid() {
		return shared.ErrInvalidGuildID
	}
	_, err := season.ParseDuration(c.Duration)
	return err
}

// StartTemporarySeasonResult describes the started season.
type StartTemporarySeasonResult struct {
	SeasonID string
	Label    string
	EndsAt   time.Time
}

// StartTemporarySeasonHandler handles the StartTemporarySeasonCommand.
type StartTemporarySeasonHandler struct {
	seasonRepo     season.Repository
	guildRepo      guild.Repository
	eventPublisher shared.EventPublisher
}

// NewStartTemporarySeasonHandler creates a new StartTemporarySeasonHandler.
func NewStartTemporarySeasonHandler(
	seasonRepo season.Repository,
	guildRepo guild.Repository,
	eventPublisher shared.EventPublisher,
) *StartTemporarySeasonHandler {
	return &StartTemporarySeasonHandler{
		seasonRepo:     seasonRepo,
		guildRepo:      guildRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle starts the temporary season. The guild flag is claimed first
// with a compare-and-set; a second caller racing the same guild loses the
// claim and is rejected with a conflict. If inserting the season row then
// fails, the claim is released so the guild is not left wedged.
func (h *StartTemporarySeasonHandler) Handle(ctx context.Context, cmd StartTemporarySeasonCommand) (*StartTemporarySeasonResult, error) {
	if !cmd.GuildID.IsValid() {
		return nil, fmt.Errorf("start_temp_season: validation failed: %w", shared.ErrInvalidGuildID)
	}
	duration, err := season.ParseDuration(cmd.Duration)
	if err != nil {
		return nil, fmt.Errorf("start_temp_season: %w", err)
	}

	// Rows exist lazily; make sure the guild row is there to flag.
	if _, err := h.guildRepo.GetOrCreate(ctx, cmd.GuildID); err != nil {
		return nil, fmt.Errorf("start_temp_season: failed to load guild: %w", err)
	}

	label := shared.NewSeasonLabel(cmd.Label)
	if label.IsEmpty() {
		auto, err := nextAutoLabel(ctx, h.seasonRepo, cmd.GuildID)
		if err != nil {
			return nil, fmt.Errorf("start_temp_season: failed to pick label: %w", err)
		}
		label = auto
	}

	claimed, err := h.guildRepo.TryActivateTempSeason(ctx, cmd.GuildID)
	if err != nil {
		return nil, fmt.Errorf("start_temp_season: failed to claim flag: %w", err)
	}
	if !claimed {
		return nil, fmt.Errorf("start_temp_season: %w", shared.ErrTempSeasonActive)
	}

	s, err := season.NewTemporarySeason(cmd.GuildID, label, duration)
	if err == nil {
		err = h.seasonRepo.Create(ctx, s)
	}
	if err != nil {
		_, _ = h.guildRepo.ClearTempSeason(ctx, cmd.GuildID)
		return nil, fmt.Errorf("start_temp_season: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewSeasonCreatedEvent(
		s.ID.String(), cmd.GuildID.Int64(), label.String(), true,
	))

	return &StartTemporarySeasonResult{
		SeasonID: s.ID.String(),
		Label:    label.String(),
		EndsAt:   *s.EndsAt,
	}, nil
}

// StopTemporarySeasonCommand ends the running temporary season, either
// manually or from the expiry poller.
type StopTemporarySeasonCommand struct {
	// GuildID identifies the guild.
	GuildID shared.GuildID

	// Manual distinguishes an early stop from a poller-driven expiry.
	// Only expiries announce the rollback.
	Manual bool
}

// Validate validates the command.
func (c StopTemporarySeasonCommand) Validate() error {
	if !c.GuildID.IsValid() {
		return shared.ErrInvalidGuildID
	}
	return nil
}

// StopTemporarySeasonHandler handles the StopTemporarySeasonCommand.
type StopTemporarySeasonHandler struct {
	seasonRepo     season.Repository
	guildRepo      guild.Repository
	eventPublisher shared.EventPublisher
}

// NewStopTemporarySeasonHandler creates a new StopTemporarySeasonHandler.
func NewStopTemporarySeasonHandler(
	seasonRepo season.Repository,
	guildRepo guild.Repository,
	eventPublisher shared.EventPublisher,
) *StopTemporarySeasonHandler {
	return &StopTemporarySeasonHandler{
		seasonRepo:     seasonRepo,
		guildRepo:      guildRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle stops the temporary season. Clearing the flag is the first
// persisted effect, so two racing stops (poller tick vs. manual command)
// collapse into one: the loser of the compare-and-set sees the flag
// already clear and reports that nothing is running.
func (h *StopTemporarySeasonHandler) Handle(ctx context.Context, cmd StopTemporarySeasonCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("stop_temp_season: validation failed: %w", err)
	}

	cleared, err := h.guildRepo.ClearTempSeason(ctx, cmd.GuildID)
	if err != nil {
		return fmt.Errorf("stop_temp_season: failed to clear flag: %w", err)
	}
	if !cleared {
		return fmt.Errorf("stop_temp_season: %w", shared.ErrNoTempSeasonRunning)
	}

	s, err := h.seasonRepo.GetActiveTemporary(ctx, cmd.GuildID)
	if err == nil {
		if err := h.seasonRepo.MakePermanent(ctx, s.ID); err != nil {
			return fmt.Errorf("stop_temp_season: failed to retire season: %w", err)
		}
	} else if !shared.IsNotFound(err) {
		return fmt.Errorf("stop_temp_season: failed to load season: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewTempSeasonEndedEvent(
		cmd.GuildID.Int64(), time.Now().UTC(), cmd.Manual,
	))
	return nil
}
