// Package guild contains per-guild experience settings: the global gain
// switch, the announcement channel, and the category block list.
package guild

import (
	"time"

	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// Guild holds the experience configuration of one Discord guild.
type Guild struct {
	// GuildID identifies the guild.
	GuildID shared.GuildID

	// XPEnabled is the master switch for organic experience gain.
	// Manual adjustments work regardless.
	XPEnabled bool

	// AnnounceChannel is where level-up announcements go. Zero means
	// announcements are suppressed entirely.
	AnnounceChannel shared.ChannelID

	// BlockedCategories lists channel categories whose activity earns
	// nothing.
	BlockedCategories []int64

	// TempSeasonActive guards the single-flight rule for temporary
	// seasons. At most one can run per guild.
	TempSeasonActive bool

	// CreatedAt is when the guild row was created.
	CreatedAt time.Time
}

// NewGuild creates a guild row with defaults: experience enabled, no
// announcement channel, nothing blocked.
func NewGuild(guildID shared.GuildID) (*Guild, error) {
	if !guildID.IsValid() {
		return nil, shared.ErrInvalidGuildID
	}
	return &Guild{
		GuildID:   guildID,
		XPEnabled: true,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// IsCategoryBlocked reports whether the given category is on the block
// list. Events without a category are never blocked this way.
func (g *Guild) IsCategoryBlocked(categoryID shared.CategoryID) bool {
	if !categoryID.IsSet() {
		return false
	}
	for _, id := range g.BlockedCategories {
		if id == categoryID.Int64() {
			return true
		}
	}
	return false
}

// BlockCategory adds a category to the block list. Adding an already
// blocked category is a no-op.
func (g *Guild) BlockCategory(categoryID shared.CategoryID) error {
	if !categoryID.IsSet() {
		return shared.ErrInvalidCategoryID
	}
	if g.IsCategoryBlocked(categoryID) {
		return nil
	}
	g.BlockedCategories = append(g.BlockedCategories, categoryID.Int64())
	return nil
}

// UnblockCategory removes a category from the block list. Removing a
// category that is not blocked is a no-op.
func (g *Guild) UnblockCategory(categoryID shared.CategoryID) error {
	if !categoryID.IsSet() {
		return shared.ErrInvalidCategoryID
	}
	for i, id := range g.BlockedCategories {
		if id == categoryID.Int64() {
			g.BlockedCategories = append(g.BlockedCategories[:i], g.BlockedCategories[i+1:]...)
			return nil
		}
	}
	return nil
}

// SetXPEnabled flips the master experience switch.
func (g *Guild) SetXPEnabled(enabled bool) {
	g.XPEnabled = enabled
}

// SetAnnounceChannel changes the announcement channel. Zero clears it.
func (g *Guild) SetAnnounceChannel(channelID shared.ChannelID) {
	g.AnnounceChannel = channelID
}
