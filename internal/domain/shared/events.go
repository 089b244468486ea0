// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Progress events
	EventXPGained EventType = "progress.xp_gained"
	EventLevelUp  EventType = "progress.level_up"

	// Season events
	EventSeasonCreated   EventType = "season.created"
	EventSeasonDeleted   EventType = "season.deleted"
	EventSeasonRenamed   EventType = "season.renamed"
	EventTempSeasonBegan EventType = "season.temporary_began"
	EventTempSeasonEnded EventType = "season.temporary_ended"

	// Notification events
	EventNotificationSent   EventType = "notification.sent"
	EventNotificationFailed EventType = "notification.failed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// XPGainedEvent is emitted when a member gains experience in a guild.
type XPGainedEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	GuildID  int64  `json:"guild_id"`
	Amount   int64  `json:"amount"`
	NewTotal int64  `json:"new_total"`
	Source   string `json:"source"` // e.g., "message", "reaction_add"
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"guild_id":  e.GuildID,
		"amount":    e.Amount,
		"new_total": e.NewTotal,
		"source":    e.Source,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(userID, guildID, amount, newTotal int64, source string) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: NewBaseEvent(EventXPGained, MembershipAggregateID(userID, guildID)),
		UserID:    userID,
		GuildID:   guildID,
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
	}
}

// LevelUpEvent is emitted when a member crosses a level boundary.
type LevelUpEvent struct {
	BaseEvent
	UserID    int64 `json:"user_id"`
	GuildID   int64 `json:"guild_id"`
	NewLevel  int   `json:"new_level"`
	TotalXP   int64 `json:"total_xp"`
	ChannelID int64 `json:"channel_id,omitempty"` // channel the triggering activity happened in
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"guild_id":   e.GuildID,
		"new_level":  e.NewLevel,
		"total_xp":   e.TotalXP,
		"channel_id": e.ChannelID,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID, guildID int64, newLevel int, totalXP, channelID int64) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, MembershipAggregateID(userID, guildID)),
		UserID:    userID,
		GuildID:   guildID,
		NewLevel:  newLevel,
		TotalXP:   totalXP,
		ChannelID: channelID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Season Events
// ═══════════════════════════════════════════════════════════════════════════

// SeasonCreatedEvent is emitted when a season snapshot is archived and the
// guild ledger is reset.
type SeasonCreatedEvent struct {
	BaseEvent
	SeasonID  string `json:"season_id"`
	GuildID   int64  `json:"guild_id"`
	Label     string `json:"label"`
	Temporary bool   `json:"temporary"`
}

// Payload implements Event interface.
func (e SeasonCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"season_id": e.SeasonID,
		"guild_id":  e.GuildID,
		"label":     e.Label,
		"temporary": e.Temporary,
	}
}

// NewSeasonCreatedEvent creates a new SeasonCreatedEvent.
func NewSeasonCreatedEvent(seasonID string, guildID int64, label string, temporary bool) SeasonCreatedEvent {
	return SeasonCreatedEvent{
		BaseEvent: NewBaseEvent(EventSeasonCreated, seasonID),
		SeasonID:  seasonID,
		GuildID:   guildID,
		Label:     label,
		Temporary: temporary,
	}
}

// TempSeasonEndedEvent is emitted when a temporary season expires or is
// stopped manually.
type TempSeasonEndedEvent struct {
	BaseEvent
	GuildID int64     `json:"guild_id"`
	EndedAt time.Time `json:"ended_at"`
	Manual  bool      `json:"manual"`
}

// Payload implements Event interface.
func (e TempSeasonEndedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"guild_id": e.GuildID,
		"ended_at": e.EndedAt.Format(time.RFC3339),
		"manual":   e.Manual,
	}
}

// NewTempSeasonEndedEvent creates a new TempSeasonEndedEvent.
func NewTempSeasonEndedEvent(guildID int64, endedAt time.Time, manual bool) TempSeasonEndedEvent {
	return TempSeasonEndedEvent{
		BaseEvent: NewBaseEvent(EventTempSeasonEnded, GuildAggregateID(guildID)),
		GuildID:   guildID,
		EndedAt:   endedAt,
		Manual:    manual,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
