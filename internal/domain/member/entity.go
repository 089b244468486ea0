package member

import (
	"fmt"
	"time"

	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// GainCooldown is the minimum time between two organic experience gains
// for the same membership.
const GainCooldown = 60 * time.Second

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: MEMBERSHIP
// A membership is the progression record of one user inside one guild.
// The same user has an independent membership per guild.
// ══════════════════════════════════════════════════════════════════════════════

// Membership tracks a user's experience and level inside a single guild.
type Membership struct {
	// UserID identifies the Discord user.
	UserID shared.UserID

	// GuildID identifies the guild this record belongs to.
	GuildID shared.GuildID

	// XP is the total accumulated experience, always in [0, XPCap].
	XP int64

	// Level is the current level, always in [MinLevel, MaxLevel].
	Level int

	// LastActivityAt is when the member last gained experience organically.
	// Manual adjustments do not touch it.
	LastActivityAt time.Time

	// XPBlocked marks the member as excluded from all experience changes,
	// organic and manual alike.
	XPBlocked bool
}

// NewMembership creates a fresh membership at level zero.
func NewMembership(userID shared.UserID, guildID shared.GuildID) (*Membership, error) {
	if !userID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}
	if !guildID.IsValid() {
		return nil, shared.ErrInvalidGuildID
	}
	return &Membership{
		UserID:  userID,
		GuildID: guildID,
		XP:      0,
		Level:   MinLevel,
	}, nil
}

// ProgressInLevel returns how much experience the member has earned inside
// the current level.
func (m *Membership) ProgressInLevel() int64 {
	return m.XP - CumulativeXP(m.Level)
}

// XPNeeded returns the experience still missing to reach the next level.
func (m *Membership) XPNeeded() int64 {
	return XPToNextLevel(m.Level) - m.ProgressInLevel()
}

// OnCooldown reports whether an organic gain at the given time would fall
// inside the cooldown window of the previous one.
func (m *Membership) OnCooldown(now time.Time) bool {
	if m.LastActivityAt.IsZero() {
		return false
	}
	return now.Sub(m.LastActivityAt) < GainCooldown
}

// GainResult describes the outcome of an organic experience gain.
type GainResult struct {
	// Amount is the experience awarded before capping.
	Amount int64

	// NewTotal is the member's experience after the gain.
	NewTotal int64

	// LeveledUp reports whether the gain crossed a level boundary.
	LeveledUp bool

	// NewLevel is the member's level after the gain.
	NewLevel int
}

// Gain applies an organic experience gain. The level advances at most once
// per gain: the level-up check compares the missing experience against the
// awarded amount before the total is capped. The activity timestamp is
// refreshed even when the gain itself is swallowed by the cap.
func (m *Membership) Gain(amount int64, now time.Time) GainResult {
	needed := m.XPNeeded()

	m.XP = ClampXP(m.XP + amount)
	m.LastActivityAt = now

	leveledUp := needed <= amount && m.Level < MaxLevel
	if leveledUp {
		m.Level++
	}

	return GainResult{
		Amount:    amount,
		NewTotal:  m.XP,
		LeveledUp: leveledUp,
		NewLevel:  m.Level,
	}
}

// AdjustXP applies a manual experience delta. The total is clamped to
// [0, XPCap] and the level is recomputed from the curve so the pair stays
// consistent. Blocked members are refused. The activity timestamp is left
// alone so manual corrections never extend the gain cooldown.
func (m *Membership) AdjustXP(delta int64) error {
	if m.XPBlocked {
		return shared.ErrMemberBlocked
	}
	m.XP = ClampXP(m.XP + delta)
	m.Level = LevelForXP(m.XP)
	return nil
}

// AdjustLevel applies a manual level delta. The level is clamped to
// [MinLevel, MaxLevel] and the experience total is set to the exact
// cumulative requirement of the resulting level.
func (m *Membership) AdjustLevel(delta int) error {
	if m.XPBlocked {
		return shared.ErrMemberBlocked
	}
	m.Level = ClampLevel(m.Level + delta)
	m.XP = CumulativeXP(m.Level)
	return nil
}

// Block excludes the member from experience changes.
func (m *Membership) Block() {
	m.XPBlocked = true
}

// Unblock re-admits the member to experience changes.
func (m *Membership) Unblock() {
	m.XPBlocked = false
}

// ResetProgress zeroes the ledger for a season rollover. The row itself
// survives; block flags and the activity timestamp are kept.
func (m *Membership) ResetProgress() {
	m.XP = 0
	m.Level = MinLevel
}

// String returns a compact representation for logging.
func (m *Membership) String() string {
	return fmt.Sprintf(
		"Membership{User: %d, Guild: %d, XP: %d, Level: %d, Blocked: %t}",
		m.UserID, m.GuildID, m.XP, m.Level, m.XPBlocked,
	)
}

// Clone creates a copy of the membership.
func (m *Membership) Clone() *Membership {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE
// Per-user settings that are shared across guilds.
// ══════════════════════════════════════════════════════════════════════════════

// Profile holds a user's cross-guild preferences.
type Profile struct {
	// UserID identifies the Discord user.
	UserID shared.UserID

	// PingOnLevelUp controls whether level-up announcements mention the
	// user audibly. The very first level-up always pings regardless.
	PingOnLevelUp bool

	// CreatedAt is when the profile row was created.
	CreatedAt time.Time
}

// NewProfile creates a profile with default preferences.
func NewProfile(userID shared.UserID) (*Profile, error) {
	if !userID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}
	return &Profile{
		UserID:        userID,
		PingOnLevelUp: true,
		CreatedAt:     time.Now().UTC(),
	}, nil
}
