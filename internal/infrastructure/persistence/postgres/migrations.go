package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_core_tables",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_seasons",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CORE TABLES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create profiles, guilds and memberships
-- Version: 001

-- Per-user profile, shared across guilds
CREATE TABLE IF NOT EXISTS profiles (
    user_id BIGINT PRIMARY KEY,
    ping_on_level_up BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- Per-guild settings
CREATE TABLE IF NOT EXISTS guilds (
    guild_id BIGINT PRIMARY KEY,
    xp_enabled BOOLEAN NOT NULL DEFAULT TRUE,
    announce_channel BIGINT NOT NULL DEFAULT 0,
    blocked_categories BIGINT[] NOT NULL DEFAULT '{}',
    temp_season_active BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- The live experience ledger: one row per (user, guild)
CREATE TABLE IF NOT EXISTS memberships (
    user_id BIGINT NOT NULL,
    guild_id BIGINT NOT NULL,
    xp BIGINT NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 0,
    last_activity_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    xp_blocked BOOLEAN NOT NULL DEFAULT FALSE,

    PRIMARY KEY (user_id, guild_id),

    CONSTRAINT valid_xp CHECK (xp >= 0),
    CONSTRAINT valid_level CHECK (level >= 0 AND level <= 100)
);

-- Leaderboard queries order by XP within one guild
CREATE INDEX IF NOT EXISTS idx_memberships_guild_xp ON memberships(guild_id, xp DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS memberships;
DROP TABLE IF EXISTS guilds;
DROP TABLE IF EXISTS profiles;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: SEASONS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create seasons and archived scores
-- Version: 002

-- One row per season. ends_at is non-null only while a temporary
-- season is running.
CREATE TABLE IF NOT EXISTS seasons (
    id UUID PRIMARY KEY,
    guild_id BIGINT NOT NULL,
    label VARCHAR(100) NOT NULL,
    ends_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_seasons_guild_label UNIQUE (guild_id, label)
);

CREATE INDEX IF NOT EXISTS idx_seasons_guild ON seasons(guild_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_seasons_ends_at ON seasons(ends_at) WHERE ends_at IS NOT NULL;

-- Frozen standings at archival time, immutable once written
CREATE TABLE IF NOT EXISTS season_scores (
    season_id UUID NOT NULL REFERENCES seasons(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL,
    score BIGINT NOT NULL,
    ranking INTEGER NOT NULL,

    PRIMARY KEY (season_id, user_id),

    CONSTRAINT valid_score CHECK (score >= 0),
    CONSTRAINT valid_ranking CHECK (ranking >= 1)
);

CREATE INDEX IF NOT EXISTS idx_season_scores_ranking ON season_scores(season_id, ranking);
`

const migration002Down = `
DROP TABLE IF EXISTS season_scores;
DROP TABLE IF EXISTS seasons;
`
