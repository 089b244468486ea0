package member

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

func newTestMembership(t *testing.T) *Membership {
	t.Helper()
	m, err := NewMembership(shared.UserID(42), shared.GuildID(7))
	require.NoError(t, err)
	return m
}

func TestNewMembership_Validation(t *testing.T) {
	_, err := NewMembership(0, 7)
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = NewMembership(42, -1)
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestGain_LevelUp(t *testing.T) {
	m := newTestMembership(t)
	m.XP = 80
	now := time.Now()

	// 20 missing to level 1, awarding 25 crosses the boundary.
	res := m.Gain(25, now)

	assert.True(t, res.LeveledUp)
	assert.Equal(t, 1, res.NewLevel)
	assert.Equal(t, int64(105), res.NewTotal)
	assert.Equal(t, now, m.LastActivityAt)
}

func TestGain_ExactBoundaryLevelsUp(t *testing.T) {
	m := newTestMembership(t)
	m.XP = 75

	res := m.Gain(25, time.Now())

	assert.True(t, res.LeveledUp)
	assert.Equal(t, 1, res.NewLevel)
}

func TestGain_NoLevelUp(t *testing.T) {
	m := newTestMembership(t)

	res := m.Gain(25, time.Now())

	assert.False(t, res.LeveledUp)
	assert.Equal(t, 0, res.NewLevel)
	assert.Equal(t, int64(25), res.NewTotal)
}

func TestGain_OneLevelPerEvent(t *testing.T) {
	m := newTestMembership(t)
	m.XP = 99

	// Even a huge award only advances one level.
	res := m.Gain(10_000, time.Now())

	assert.True(t, res.LeveledUp)
	assert.Equal(t, 1, res.NewLevel)
	assert.Equal(t, int64(10_099), res.NewTotal)
}

func TestGain_CappedAtXPCap(t *testing.T) {
	m := newTestMembership(t)
	m.XP = XPCap - 10
	m.Level = MaxLevel

	res := m.Gain(75, time.Now())

	assert.Equal(t, XPCap, res.NewTotal)
	assert.False(t, res.LeveledUp)
	assert.Equal(t, MaxLevel, res.NewLevel)
}

func TestGain_RefreshesActivityEvenWhenCapped(t *testing.T) {
	m := newTestMembership(t)
	m.XP = XPCap
	m.Level = MaxLevel
	now := time.Now()

	m.Gain(25, now)

	assert.Equal(t, now, m.LastActivityAt)
	assert.Equal(t, XPCap, m.XP)
}

func TestOnCooldown(t *testing.T) {
	m := newTestMembership(t)
	now := time.Now()

	assert.False(t, m.OnCooldown(now), "fresh membership is never on cooldown")

	m.LastActivityAt = now.Add(-30 * time.Second)
	assert.True(t, m.OnCooldown(now))

	m.LastActivityAt = now.Add(-GainCooldown)
	assert.False(t, m.OnCooldown(now))
}

func TestAdjustXP_RecomputesLevel(t *testing.T) {
	m := newTestMembership(t)

	require.NoError(t, m.AdjustXP(300))

	assert.Equal(t, int64(300), m.XP)
	assert.Equal(t, 2, m.Level)
}

func TestAdjustXP_ClampsToZero(t *testing.T) {
	m := newTestMembership(t)
	m.XP = 150
	m.Level = 1

	require.NoError(t, m.AdjustXP(-500))

	assert.Equal(t, int64(0), m.XP)
	assert.Equal(t, 0, m.Level)
}

func TestAdjustXP_ClampsToCap(t *testing.T) {
	m := newTestMembership(t)

	require.NoError(t, m.AdjustXP(XPCap*2))

	assert.Equal(t, XPCap, m.XP)
	assert.Equal(t, MaxLevel, m.Level)
}

func TestAdjustXP_LeavesActivityTimestamp(t *testing.T) {
	m := newTestMembership(t)
	stamp := time.Now().Add(-5 * time.Minute)
	m.LastActivityAt = stamp

	require.NoError(t, m.AdjustXP(100))

	assert.Equal(t, stamp, m.LastActivityAt)
}

func TestAdjustXP_RefusesBlockedMember(t *testing.T) {
	m := newTestMembership(t)
	m.Block()

	err := m.AdjustXP(100)

	assert.ErrorIs(t, err, shared.ErrBlocked)
	assert.Equal(t, int64(0), m.XP)
}

func TestAdjustLevel_SetsExactCumulativeXP(t *testing.T) {
	m := newTestMembership(t)
	m.XP = 130
	m.Level = 1

	require.NoError(t, m.AdjustLevel(4))

	assert.Equal(t, 5, m.Level)
	assert.Equal(t, CumulativeXP(5), m.XP)
}

func TestAdjustLevel_Clamps(t *testing.T) {
	m := newTestMembership(t)

	require.NoError(t, m.AdjustLevel(500))
	assert.Equal(t, MaxLevel, m.Level)
	assert.Equal(t, XPCap, m.XP)

	require.NoError(t, m.AdjustLevel(-500))
	assert.Equal(t, 0, m.Level)
	assert.Equal(t, int64(0), m.XP)
}

func TestResetProgress_KeepsBlockFlag(t *testing.T) {
	m := newTestMembership(t)
	m.XP = 5000
	m.Level = 6
	m.Block()

	m.ResetProgress()

	assert.Equal(t, int64(0), m.XP)
	assert.Equal(t, 0, m.Level)
	assert.True(t, m.XPBlocked)
}

func TestAmountFor_MessageTiers(t *testing.T) {
	amount, err := AmountFor(KindMessage, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(25), amount)

	amount, err = AmountFor(KindMessage, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(50), amount)

	amount, err = AmountFor(KindMessage, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(50), amount)

	amount, err = AmountFor(KindMessage, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(75), amount)
}

func TestAmountFor_FlatKinds(t *testing.T) {
	amount, err := AmountFor(KindCommandCompletion, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(25), amount)

	amount, err = AmountFor(KindReactionAdd, 9999)
	require.NoError(t, err)
	assert.Equal(t, int64(25), amount)
}

func TestAmountFor_UnknownKind(t *testing.T) {
	_, err := AmountFor(ActivityKind("typing_start"), 0)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestActivityEvent_ShardKey(t *testing.T) {
	a := ActivityEvent{Kind: KindMessage, UserID: 42, GuildID: 7}
	b := ActivityEvent{Kind: KindReactionAdd, UserID: 42, GuildID: 7}
	c := ActivityEvent{Kind: KindMessage, UserID: 42, GuildID: 8}

	assert.Equal(t, a.ShardKey(), b.ShardKey())
	assert.NotEqual(t, a.ShardKey(), c.ShardKey())
}
