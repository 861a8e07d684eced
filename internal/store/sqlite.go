package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/models"
)

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/sandbox.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/sandbox.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// A single connection serializes writes; WAL keeps concurrent
	// readers (the CLI) from blocking on the server.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
// Timestamps are stored as unix nanoseconds so ordering is integer
// comparison rather than string comparison.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS groups (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL
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
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		group_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		recipients TEXT NOT NULL,
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (thread_id, seq)
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		group_id TEXT NOT NULL DEFAULT '',
		agent TEXT NOT NULL DEFAULT '',
		thread_id TEXT NOT NULL DEFAULT '',
		seq INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_threads_group ON threads(group_id);
	CREATE INDEX IF NOT EXISTS idx_messages_group_time ON messages(group_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_messages_seq ON messages(seq);
	CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender);
	CREATE INDEX IF NOT EXISTS idx_events_time ON events(created_at DESC);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetGroup retrieves a group and its roster by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	group := &models.Group{}
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at FROM groups WHERE id = ?
	`, id).Scan(&group.ID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	group.CreatedAt = fromUnixNano(createdAt)

	group.Agents, err = s.groupRoster(ctx, id)
	if err != nil {
		return nil, err
	}
	return group, nil
}

// groupRoster returns a group's agents in the order they were added.
func (s *SQLiteStore) groupRoster(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT agent FROM group_agents WHERE group_id = ? ORDER BY position
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []string
	for rows.Next() {
		var agent string
		if err := rows.Scan(&agent); err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

// CreateGroup creates a group and its initial roster.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO groups (id, created_at) VALUES (?, ?)
	`, group.ID, group.CreatedAt.UnixNano())
	if err != nil {
		return err
	}

	for i, agent := range group.Agents {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO group_agents (group_id, agent, position) VALUES (?, ?, ?)
		`, group.ID, agent, i)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// AddAgents appends agents to an existing group's roster.
// Callers filter out agents already present.
func (s *SQLiteStore) AddAgents(ctx context.Context, groupID string, agents []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position), -1) + 1 FROM group_agents WHERE group_id = ?
	`, groupID).Scan(&next)
	if err != nil {
		return err
	}

	for i, agent := range agents {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO group_agents (group_id, agent, position) VALUES (?, ?, ?)
		`, groupID, agent, next+i)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListGroups retrieves all groups with their rosters, oldest first.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]models.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at FROM groups ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var group models.Group
		var createdAt int64
		if err := rows.Scan(&group.ID, &createdAt); err != nil {
			return nil, err
		}
		group.CreatedAt = fromUnixNano(createdAt)
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range groups {
		groups[i].Agents, err = s.groupRoster(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// GetThread retrieves a thread by ID.
func (s *SQLiteStore) GetThread(ctx context.Context, id string) (*models.Thread, error) {
	thread := &models.Thread{}
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, group_id, subject, creator, last_seq, created_at
		FROM threads WHERE id = ?
	`, id).Scan(
		&thread.ID,
		&thread.GroupID,
		&thread.Subject,
		&thread.Creator,
		&thread.LastSeq,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	thread.CreatedAt = fromUnixNano(createdAt)
	return thread, nil
}

// CreateThread creates a new thread record.
func (s *SQLiteStore) CreateThread(ctx context.Context, thread *models.Thread) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO threads (id, group_id, subject, creator, last_seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, thread.ID, thread.GroupID, thread.Subject, thread.Creator, thread.LastSeq, thread.CreatedAt.UnixNano())
	return err
}

// GetMessage retrieves a message by its (thread, seq) position.
func (s *SQLiteStore) GetMessage(ctx context.Context, threadID string, seq int) (*models.Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT thread_id, seq, group_id, sender, recipients, subject, body, created_at
		FROM messages WHERE thread_id = ? AND seq = ?
	`, threadID, seq)

	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

// CreateMessage inserts a message and advances the owning thread's
// last_seq in one transaction. The (thread_id, seq) primary key makes
// concurrent allocations of the same sequence number fail rather than
// silently overwrite.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	recipients, err := json.Marshal(msg.To)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (thread_id, seq, group_id, sender, recipients, subject, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ThreadID, msg.Seq, msg.GroupID, msg.From, string(recipients), msg.Subject, msg.Body, msg.CreatedAt.UnixNano())
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE threads SET last_seq = ? WHERE id = ?
	`, msg.Seq, msg.ThreadID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ListThreadMessages retrieves a thread's messages in sequence order.
func (s *SQLiteStore) ListThreadMessages(ctx context.Context, threadID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT thread_id, seq, group_id, sender, recipients, subject, body, created_at
		FROM messages WHERE thread_id = ? ORDER BY seq
	`, threadID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// ListGroupMessages retrieves a group's most recent messages, newest first.
func (s *SQLiteStore) ListGroupMessages(ctx context.Context, groupID string, limit int) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT thread_id, seq, group_id, sender, recipients, subject, body, created_at
		FROM messages
		WHERE group_id = ?
		ORDER BY created_at DESC, seq DESC
		LIMIT ?
	`, groupID, limit)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// FindMessagesBySeq retrieves every message with the given sequence
// number, optionally narrowed to one group. Used to detect ambiguous
// bare message IDs.
func (s *SQLiteStore) FindMessagesBySeq(ctx context.Context, seq int, groupID string) ([]models.Message, error) {
	var rows *sql.Rows
	var err error
	if groupID != "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT thread_id, seq, group_id, sender, recipients, subject, body, created_at
			FROM messages WHERE seq = ? AND group_id = ? ORDER BY created_at
		`, seq, groupID)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT thread_id, seq, group_id, sender, recipients, subject, body, created_at
			FROM messages WHERE seq = ? ORDER BY created_at
		`, seq)
	}
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// ListMessagesForAgent retrieves messages in a group addressed to the
// agent, newest first. Messages the agent sent but does not receive are
// excluded; those come from ListMessagesByAgent.
func (s *SQLiteStore) ListMessagesForAgent(ctx context.Context, agent, groupID string, limit int) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT thread_id, seq, group_id, sender, recipients, subject, body, created_at
		FROM messages
		WHERE group_id = ?
		  AND EXISTS (
			SELECT 1 FROM json_each(messages.recipients) WHERE json_each.value = ?
		  )
		ORDER BY created_at DESC, seq DESC
		LIMIT ?
	`, groupID, agent, limit)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// ListMessagesByAgent retrieves messages sent by an agent, newest
// first, optionally narrowed to one group.
func (s *SQLiteStore) ListMessagesByAgent(ctx context.Context, agent, groupID string, limit int) ([]models.Message, error) {
	var rows *sql.Rows
	var err error
	if groupID != "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT thread_id, seq, group_id, sender, recipients, subject, body, created_at
			FROM messages WHERE sender = ? AND group_id = ?
			ORDER BY created_at DESC, seq DESC
			LIMIT ?
		`, agent, groupID, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT thread_id, seq, group_id, sender, recipients, subject, body, created_at
			FROM messages WHERE sender = ?
			ORDER BY created_at DESC, seq DESC
			LIMIT ?
		`, agent, limit)
	}
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// AppendEvent records an activity log entry.
func (s *SQLiteStore) AppendEvent(ctx context.Context, ev *models.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, type, group_id, agent, thread_id, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, string(ev.Type), ev.GroupID, ev.Agent, ev.ThreadID, ev.Seq, ev.CreatedAt.UnixNano())
	return err
}

// ListEvents retrieves the most recent activity log entries, newest
// first, optionally narrowed to one group. ULID event IDs break ties
// between entries created in the same nanosecond.
func (s *SQLiteStore) ListEvents(ctx context.Context, groupID string, limit int) ([]models.Event, error) {
	var rows *sql.Rows
	var err error
	if groupID != "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, type, group_id, agent, thread_id, seq, created_at
			FROM events WHERE group_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		`, groupID, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, type, group_id, agent, thread_id, seq, created_at
			FROM events
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var ev models.Event
		var typ string
		var createdAt int64
		err := rows.Scan(&ev.ID, &typ, &ev.GroupID, &ev.Agent, &ev.ThreadID, &ev.Seq, &createdAt)
		if err != nil {
			return nil, err
		}
		ev.Type = models.EventType(typ)
		ev.CreatedAt = fromUnixNano(createdAt)
		events = append(events, ev)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanMessage reads one message row. Recipients are stored as a JSON
// array so json_each can match them in queries.
func scanMessage(row rowScanner) (*models.Message, error) {
	msg := &models.Message{}
	var recipients string
	var createdAt int64
	err := row.Scan(
		&msg.ThreadID,
		&msg.Seq,
		&msg.GroupID,
		&msg.From,
		&recipients,
		&msg.Subject,
		&msg.Body,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(recipients), &msg.To); err != nil {
		return nil, err
	}
	msg.CreatedAt = fromUnixNano(createdAt)
	return msg, nil
}

func collectMessages(rows *sql.Rows) ([]models.Message, error) {
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *msg)
	}
	return msgs, rows.Err()
}

func fromUnixNano(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

// Reset deletes all data. There is no undo.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"messages", "threads", "group_agents", "groups", "events"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	return tx.Commit()
}
