package member

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXPToNextLevel(t *testing.T) {
	assert.Equal(t, int64(100), XPToNextLevel(0))
	assert.Equal(t, int64(155), XPToNextLevel(1))
	assert.Equal(t, int64(220), XPToNextLevel(2))
	assert.Equal(t, int64(5*99*99+50*99+100), XPToNextLevel(99))
}

func TestCumulativeXP(t *testing.T) {
	assert.Equal(t, int64(0), CumulativeXP(0))
	assert.Equal(t, int64(100), CumulativeXP(1))
	assert.Equal(t, int64(255), CumulativeXP(2))

	// The cap is exactly the cumulative requirement of the level cap.
	assert.Equal(t, XPCap, CumulativeXP(MaxLevel))
}

func TestCumulativeXP_Recurrence(t *testing.T) {
	for level := 0; level < MaxLevel; level++ {
		assert.Equal(t, CumulativeXP(level)+XPToNextLevel(level), CumulativeXP(level+1))
	}
}

func TestLevelForXP(t *testing.T) {
	assert.Equal(t, 0, LevelForXP(0))
	assert.Equal(t, 0, LevelForXP(99))

	// Exactly 100 XP reaches level 1.
	assert.Equal(t, 1, LevelForXP(100))
	assert.Equal(t, 1, LevelForXP(254))
	assert.Equal(t, 2, LevelForXP(255))

	assert.Equal(t, MaxLevel, LevelForXP(XPCap))
	assert.Equal(t, MaxLevel, LevelForXP(XPCap+1_000_000))
	assert.Equal(t, 0, LevelForXP(-5))
}

func TestLevelForXP_InverseOfCumulative(t *testing.T) {
	for level := 0; level <= MaxLevel; level++ {
		xp := CumulativeXP(level)
		assert.Equal(t, level, LevelForXP(xp), "at boundary of level %d", level)
		if level > 0 {
			assert.Equal(t, level-1, LevelForXP(xp-1), "just below boundary of level %d", level)
		}
	}
}

func TestClampXP(t *testing.T) {
	assert.Equal(t, int64(0), ClampXP(-10))
	assert.Equal(t, int64(42), ClampXP(42))
	assert.Equal(t, XPCap, ClampXP(XPCap+1))
}

func TestClampLevel(t *testing.T) {
	assert.Equal(t, MinLevel, ClampLevel(-3))
	assert.Equal(t, 50, ClampLevel(50))
	assert.Equal(t, MaxLevel, ClampLevel(MaxLevel+7))
}
