package db

import (
	"context"

	"github.com/jmoiron/sqlx"
)

func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL DEFAULT '',
    display_name TEXT NOT NULL DEFAULT '',
    avatar_ref TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email) WHERE email <> '';

CREATE TABLE IF NOT EXISTS goals (
    id TEXT PRIMARY KEY,
    seq BIGSERIAL,
    user_id TEXT NOT NULL,
    text TEXT NOT NULL,
    label_index TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS goals_user_idx ON goals (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS goals_label_idx ON goals (user_id, label_index);

CREATE TABLE IF NOT EXISTS milestones (
    id TEXT PRIMARY KEY,
    seq BIGSERIAL,
    goal_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    text TEXT NOT NULL,
    checked BOOLEAN NOT NULL DEFAULT false,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS milestones_goal_idx ON milestones (user_id, goal_id, created_at);

CREATE TABLE IF NOT EXISTS journal_entries (
    id TEXT PRIMARY KEY,
    seq BIGSERIAL,
    user_id TEXT NOT NULL,
    goal_id TEXT,
    goal_label TEXT NOT NULL DEFAULT '',
    milestone TEXT,
    response TEXT NOT NULL,
    local_date TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS journal_user_idx ON journal_entries (user_id, created_at DESC);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}
