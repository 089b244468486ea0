package guild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

func TestNewGuild_Defaults(t *testing.T) {
	g, err := NewGuild(shared.GuildID(7))
	require.NoError(t, err)

	assert.True(t, g.XPEnabled)
	assert.False(t, g.AnnounceChannel.IsSet())
	assert.Empty(t, g.BlockedCategories)
	assert.False(t, g.TempSeasonActive)
}

func TestNewGuild_InvalidID(t *testing.T) {
	_, err := NewGuild(0)
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestBlockCategory(t *testing.T) {
	g, err := NewGuild(shared.GuildID(7))
	require.NoError(t, err)

	require.NoError(t, g.BlockCategory(shared.CategoryID(100)))
	assert.True(t, g.IsCategoryBlocked(shared.CategoryID(100)))
	assert.False(t, g.IsCategoryBlocked(shared.CategoryID(101)))

	// Blocking twice keeps a single entry.
	require.NoError(t, g.BlockCategory(shared.CategoryID(100)))
	assert.Len(t, g.BlockedCategories, 1)
}

func TestUnblockCategory(t *testing.T) {
	g, err := NewGuild(shared.GuildID(7))
	require.NoError(t, err)
	require.NoError(t, g.BlockCategory(shared.CategoryID(100)))
	require.NoError(t, g.BlockCategory(shared.CategoryID(200)))

	require.NoError(t, g.UnblockCategory(shared.CategoryID(100)))

	assert.False(t, g.IsCategoryBlocked(shared.CategoryID(100)))
	assert.True(t, g.IsCategoryBlocked(shared.CategoryID(200)))

	// Unblocking something that is not blocked is fine.
	require.NoError(t, g.UnblockCategory(shared.CategoryID(100)))
}

func TestIsCategoryBlocked_NoCategory(t *testing.T) {
	g, err := NewGuild(shared.GuildID(7))
	require.NoError(t, err)
	require.NoError(t, g.BlockCategory(shared.CategoryID(100)))

	// Events outside any category cannot be category-blocked.
	assert.False(t, g.IsCategoryBlocked(shared.CategoryID(0)))
}
