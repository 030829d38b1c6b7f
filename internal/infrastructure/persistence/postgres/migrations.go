package postgres

// GetMigrations returns all embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_learners",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_progression",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_badges",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Migration 001: learners and xp_history
// The version column carries optimistic concurrency for XP awards.
// ─────────────────────────────────────────────────────────────────────────────

const migration001Up = `
CREATE TABLE learners (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	display_name TEXT NOT NULL,
	current_xp INTEGER NOT NULL DEFAULT 0 CHECK (current_xp >= 0),
	current_level INTEGER NOT NULL DEFAULT 1 CHECK (current_level >= 1),
	version BIGINT NOT NULL DEFAULT 1,
	joined_at TIMESTAMP WITH TIME ZONE NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_learners_current_xp ON learners (current_xp DESC);

CREATE TABLE xp_history (
	id BIGSERIAL PRIMARY KEY,
	learner_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
	old_xp INTEGER NOT NULL,
	new_xp INTEGER NOT NULL,
	delta INTEGER NOT NULL,
	source TEXT NOT NULL,
	reference TEXT,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_xp_history_learner ON xp_history (learner_id, created_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS xp_history;
DROP TABLE IF EXISTS learners;
`

// ─────────────────────────────────────────────────────────────────────────────
// Migration 002: progression facts
// Unique constraints enforce once-per-module completions and once-per-day
// challenge claims.
// ─────────────────────────────────────────────────────────────────────────────

const migration002Up = `
CREATE TABLE module_completions (
	learner_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
	module_id TEXT NOT NULL,
	xp_earned INTEGER NOT NULL,
	completed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	PRIMARY KEY (learner_id, module_id)
);

CREATE TABLE quiz_attempts (
	id UUID PRIMARY KEY,
	learner_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
	quiz_id TEXT NOT NULL,
	score INTEGER NOT NULL CHECK (score >= 0 AND score <= 100),
	passed BOOLEAN NOT NULL,
	perfect BOOLEAN NOT NULL,
	xp_earned INTEGER NOT NULL,
	attempted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_quiz_attempts_learner ON quiz_attempts (learner_id, attempted_at DESC);
CREATE INDEX idx_quiz_attempts_quiz ON quiz_attempts (learner_id, quiz_id);

-- At most one rewarded attempt per (learner, quiz): two concurrent first
-- passes race on this index and the loser is recorded without XP.
CREATE UNIQUE INDEX idx_quiz_attempts_reward
	ON quiz_attempts (learner_id, quiz_id) WHERE xp_earned > 0;

CREATE TABLE simulation_runs (
	id UUID PRIMARY KEY,
	learner_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
	simulation_id TEXT NOT NULL,
	xp_earned INTEGER NOT NULL,
	ran_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_simulation_runs_learner ON simulation_runs (learner_id, ran_at DESC);

CREATE TABLE daily_challenge_claims (
	learner_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
	day DATE NOT NULL,
	xp_earned INTEGER NOT NULL,
	claimed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	PRIMARY KEY (learner_id, day)
);
`

const migration002Down = `
DROP TABLE IF EXISTS daily_challenge_claims;
DROP TABLE IF EXISTS simulation_runs;
DROP TABLE IF EXISTS quiz_attempts;
DROP TABLE IF EXISTS module_completions;
`

// ─────────────────────────────────────────────────────────────────────────────
// Migration 003: badge awards
// The unique primary key makes double-award a constraint violation, which
// the repository maps to an idempotent no-op.
// ─────────────────────────────────────────────────────────────────────────────

const migration003Up = `
CREATE TABLE badge_awards (
	learner_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
	badge_id TEXT NOT NULL,
	earned_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	PRIMARY KEY (learner_id, badge_id)
);

CREATE INDEX idx_badge_awards_learner ON badge_awards (learner_id, earned_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS badge_awards;
`
