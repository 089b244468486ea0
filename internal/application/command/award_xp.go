// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/guildhub/guild-xp-hub/internal/domain/guild"
	"github.com/guildhub/guild-xp-hub/internal/domain/member"
	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD XP COMMAND
// The organic gain pipeline: one inbound activity event runs through the
// eligibility filter and, if it passes, moves the member's ledger forward.
// ══════════════════════════════════════════════════════════════════════════════

// SkipReason explains why an activity event earned nothing. Skips are a
// normal outcome, not errors; the dispatch loop keeps going either way.
type SkipReason string

const (
	// SkipNone - the event was awarded.
	SkipNone SkipReason = ""

	// SkipXPDisabled - the guild has experience gain switched off.
	SkipXPDisabled SkipReason = "xp_disabled"

	// SkipMemberBlocked - the member is excluded from experience gain.
	SkipMemberBlocked SkipReason = "member_blocked"

	// SkipCategoryBlocked - the channel category is on the block list.
	SkipCategoryBlocked SkipReason = "category_blocked"

	// SkipCooldown - the member gained experience less than a minute ago.
	SkipCooldown SkipReason = "cooldown"
)

// AwardXPCommand carries one activity event through the gain pipeline.
type AwardXPCommand struct {
	// Event is the inbound activity.
	Event member.ActivityEvent

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c AwardXPCommand) Validate() error {
	return c.Event.Validate()
}

// AwardXPResult describes what the pipeline did with the event.
type AwardXPResult struct {
	// Awarded reports whether any experience was granted.
	Awarded bool

	// Skip names the eligibility rule that swallowed the event, if any.
	Skip SkipReason

	// Amount is the experience granted.
	Amount int64

	// NewTotal is the member's experience after the award.
	NewTotal int64

	// LeveledUp reports whether the award crossed a level boundary.
	LeveledUp bool

	// NewLevel is the member's level after the award.
	NewLevel int
}

// AwardXPHandler handles the AwardXPCommand.
type AwardXPHandler struct {
	memberRepo     member.Repository
	guildRepo      guild.Repository
	eventPublisher shared.EventPublisher

	// now is swappable for tests.
	now func() time.Time
}

// NewAwardXPHandler creates a new AwardXPHandler.
func NewAwardXPHandler(
	memberRepo member.Repository,
	guildRepo guild.Repository,
	eventPublisher shared.EventPublisher,
) *AwardXPHandler {
	return &AwardXPHandler{
		memberRepo:     memberRepo,
		guildRepo:      guildRepo,
		eventPublisher: eventPublisher,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the handler's time source. Test hook.
func (h *AwardXPHandler) WithClock(now func() time.Time) *AwardXPHandler {
	h.now = now
	return h
}

// Handle runs one activity event through eligibility and the ledger.
// The filter is evaluated in a fixed order: guild switch, member block,
// category block, cooldown. The first failing rule wins and nothing is
// persisted.
func (h *AwardXPHandler) Handle(ctx context.Context, cmd AwardXPCommand) (*AwardXPResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("award_xp: validation failed: %w", err)
	}

	ev := cmd.Event

	g, err := h.guildRepo.GetOrCreate(ctx, ev.GuildID)
	if err != nil {
		return nil, fmt.Errorf("award_xp: failed to load guild: %w", err)
	}

	if !g.XPEnabled {
		return &AwardXPResult{Skip: SkipXPDisabled}, nil
	}

	m, err := h.memberRepo.GetOrCreate(ctx, ev.UserID, ev.GuildID)
	if err != nil {
		return nil, fmt.Errorf("award_xp: failed to load membership: %w", err)
	}

	if m.XPBlocked {
		return &AwardXPResult{Skip: SkipMemberBlocked}, nil
	}

	if g.IsCategoryBlocked(ev.CategoryID) {
		return &AwardXPResult{Skip: SkipCategoryBlocked}, nil
	}

	now := h.now()
	if m.OnCooldown(now) {
		return &AwardXPResult{Skip: SkipCooldown}, nil
	}

	amount, err := member.AmountFor(ev.Kind, ev.ContentLength)
	if err != nil {
		return nil, fmt.Errorf("award_xp: %w", err)
	}

	gain := m.Gain(amount, now)

	if err := h.memberRepo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("award_xp: failed to persist gain: %w", err)
	}

	h.publishEvents(cmd, gain, g)

	return &AwardXPResult{
		Awarded:   true,
		Amount:    gain.Amount,
		NewTotal:  gain.NewTotal,
		LeveledUp: gain.LeveledUp,
		NewLevel:  gain.NewLevel,
	}, nil
}

// publishEvents emits the gain event and, on a level-up with a configured
// announce channel, the level-up event that drives the announcement.
func (h *AwardXPHandler) publishEvents(cmd AwardXPCommand, gain member.GainResult, g *guild.Guild) {
	ev := cmd.Event

	gained := shared.NewXPGainedEvent(
		ev.UserID.Int64(), ev.GuildID.Int64(),
		gain.Amount, gain.NewTotal, string(ev.Kind),
	)
	if cmd.CorrelationID != "" {
		gained.BaseEvent = gained.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(gained)

	if !gain.LeveledUp || !g.AnnounceChannel.IsSet() {
		return
	}

	levelUp := shared.NewLevelUpEvent(
		ev.UserID.Int64(), ev.GuildID.Int64(),
		gain.NewLevel, gain.NewTotal, g.AnnounceChannel.Int64(),
	)
	if cmd.CorrelationID != "" {
		levelUp.BaseEvent = levelUp.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(levelUp)
}
