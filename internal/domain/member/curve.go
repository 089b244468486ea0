package member

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL CURVE
// The quadratic curve that maps total experience to levels. All progression
// math in the system goes through these three functions.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MinLevel is the starting level for a fresh membership.
	MinLevel = 0

	// MaxLevel is the level cap. Levels never exceed this, organically or
	// through manual adjustment.
	MaxLevel = 100

	// XPCap is the total experience required to reach MaxLevel. Experience
	// never accumulates past this point.
	XPCap int64 = 1_899_250
)

// XPToNextLevel returns the experience needed to advance from the given
// level to the next one. The curve is quadratic: 5*l^2 + 50*l + 100.
func XPToNextLevel(level int) int64 {
	if level < 0 {
		level = 0
	}
	l := int64(level)
	return 5*l*l + 50*l + 100
}

// CumulativeXP returns the total experience required to reach the given
// level starting from zero. CumulativeXP(0) is 0.
func CumulativeXP(level int) int64 {
	if level <= 0 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	var total int64
	for l := 0; l < level; l++ {
		total += XPToNextLevel(l)
	}
	return total
}

// LevelForXP returns the highest level whose cumulative requirement does
// not exceed the given experience total. This is the inverse of
// CumulativeXP: exactly 100 XP puts a member at level 1, 99 XP leaves
// them at level 0.
func LevelForXP(xp int64) int {
	if xp <= 0 {
		return MinLevel
	}
	level := MinLevel
	for level < MaxLevel && CumulativeXP(level+1) <= xp {
		level++
	}
	return level
}

// ClampXP bounds an experience total to [0, XPCap].
func ClampXP(xp int64) int64 {
	if xp < 0 {
		return 0
	}
	if xp > XPCap {
		return XPCap
	}
	return xp
}

// ClampLevel bounds a level to [MinLevel, MaxLevel].
func ClampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}
