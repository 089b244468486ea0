package member

import (
	"time"

	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY EVENTS
// Inbound activity that can earn experience. Events arrive from the gateway
// ingest endpoint and are dispatched per membership.
// ══════════════════════════════════════════════════════════════════════════════

// ActivityKind identifies the kind of member activity.
type ActivityKind string

const (
	// KindMessage is a regular guild message.
	KindMessage ActivityKind = "message"

	// KindCommandCompletion is a successfully completed application command.
	KindCommandCompletion ActivityKind = "command_completion"

	// KindReactionAdd is a reaction added to a message.
	KindReactionAdd ActivityKind = "reaction_add"
)

// IsValid checks if the activity kind is known.
func (k ActivityKind) IsValid() bool {
	switch k {
	case KindMessage, KindCommandCompletion, KindReactionAdd:
		return true
	default:
		return false
	}
}

// Award amounts per activity kind. Messages are tiered by content length.
const (
	awardSmall  int64 = 25
	awardMedium int64 = 50
	awardLarge  int64 = 75

	shortMessageLimit  = 30
	mediumMessageLimit = 100
)

// AmountFor returns the experience an activity event is worth.
// Messages shorter than 30 characters earn 25, shorter than 100 earn 50,
// anything longer earns 75. Command completions and reactions earn a flat 25.
func AmountFor(kind ActivityKind, contentLength int) (int64, error) {
	switch kind {
	case KindMessage:
		switch {
		case contentLength < shortMessageLimit:
			return awardSmall, nil
		case contentLength < mediumMessageLimit:
			return awardMedium, nil
		default:
			return awardLarge, nil
		}
	case KindCommandCompletion, KindReactionAdd:
		return awardSmall, nil
	default:
		return 0, shared.ErrUnknownEventKind
	}
}

// ActivityEvent is one inbound piece of member activity.
type ActivityEvent struct {
	Kind          ActivityKind      `json:"kind"`
	UserID        shared.UserID     `json:"user_id"`
	GuildID       shared.GuildID    `json:"guild_id"`
	ChannelID     shared.ChannelID  `json:"channel_id"`
	CategoryID    shared.CategoryID `json:"category_id,omitempty"`
	ContentLength int               `json:"content_length,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// Validate checks the event fields.
func (e ActivityEvent) Validate() error {
	if !e.Kind.IsValid() {
		return shared.ErrUnknownEventKind
	}
	if !e.UserID.IsValid() {
		return shared.ErrInvalidUserID
	}
	if !e.GuildID.IsValid() {
		return shared.ErrInvalidGuildID
	}
	return nil
}

// ShardKey returns the key events are partitioned by. All events of one
// membership share a key, so they are processed strictly in order.
func (e ActivityEvent) ShardKey() string {
	return shared.MembershipAggregateID(e.UserID.Int64(), e.GuildID.Int64())
}
