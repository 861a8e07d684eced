package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS groups (
	id TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS group_agents (
	group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	agent TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (group_id, agent)
);

CREATE TABLE IF NOT EXISTS threads (
	id TEXT PRIMARY KEY,
	group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	subject TEXT NOT NULL,
	creator TEXT NOT NULL,
	last_seq INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS messages (
	thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	group_id TEXT NOT NULL,
	sender TEXT NOT NULL,
	recipients TEXT[] NOT NULL DEFAULT '{}',
	subject TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (thread_id, seq)
);

CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	group_id TEXT NOT NULL DEFAULT '',
	agent TEXT NOT NULL DEFAULT '',
	thread_id TEXT NOT NULL DEFAULT '',
	seq INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_threads_group ON threads(group_id);
CREATE INDEX IF NOT EXISTS idx_messages_group_time ON messages(group_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_messages_seq ON messages(seq);
CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender);
CREATE INDEX IF NOT EXISTS idx_messages_recipients ON messages USING GIN(recipients);
CREATE INDEX IF NOT EXISTS idx_events_time ON events(created_at DESC);
`

// RunMigrations applies the PostgreSQL schema. Every statement is
// idempotent, so running it on startup is safe.
func RunMigrations(databaseURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, postgresSchema)
	return err
}
