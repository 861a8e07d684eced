package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// GetGroup retrieves a group and its roster by ID.
func (s *PostgresStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	group := &models.Group{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, created_at FROM groups WHERE id = $1
	`, id).Scan(&group.ID, &group.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	group.Agents, err = s.groupRoster(ctx, id)
	if err != nil {
		return nil, err
	}
	return group, nil
}

// groupRoster returns a group's agents in the order they were added.
func (s *PostgresStore) groupRoster(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT agent FROM group_agents WHERE group_id = $1 ORDER BY position
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
func (s *PostgresStore) CreateGroup(ctx context.Context, group *models.Group) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO groups (id, created_at) VALUES ($1, $2)
	`, group.ID, group.CreatedAt)
	if err != nil {
		return err
	}

	for i, agent := range group.Agents {
		_, err = tx.Exec(ctx, `
			INSERT INTO group_agents (group_id, agent, position) VALUES ($1, $2, $3)
		`, group.ID, agent, i)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// AddAgents appends agents to an existing group's roster.
// Callers filter out agents already present.
func (s *PostgresStore) AddAgents(ctx context.Context, groupID string, agents []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var next int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(position), -1) + 1 FROM group_agents WHERE group_id = $1
	`, groupID).Scan(&next)
	if err != nil {
		return err
	}

	for i, agent := range agents {
		_, err = tx.Exec(ctx, `
			INSERT INTO group_agents (group_id, agent, position) VALUES ($1, $2, $3)
		`, groupID, agent, next+i)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListGroups retrieves all groups with their rosters, oldest first.
func (s *PostgresStore) ListGroups(ctx context.Context) ([]models.Group, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, created_at FROM groups ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var group models.Group
		if err := rows.Scan(&group.ID, &group.CreatedAt); err != nil {
			return nil, err
		}
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
func (s *PostgresStore) GetThread(ctx context.Context, id string) (*models.Thread, error) {
	thread := &models.Thread{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, group_id, subject, creator, last_seq, created_at
		FROM threads WHERE id = $1
	`, id).Scan(
		&thread.ID,
		&thread.GroupID,
		&thread.Subject,
		&thread.Creator,
		&thread.LastSeq,
		&thread.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return thread, nil
}

// CreateThread creates a new thread record.
func (s *PostgresStore) CreateThread(ctx context.Context, thread *models.Thread) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO threads (id, group_id, subject, creator, last_seq, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, thread.ID, thread.GroupID, thread.Subject, thread.Creator, thread.LastSeq, thread.CreatedAt)
	return err
}

// GetMessage retrieves a message by its (thread, seq) position.
func (s *PostgresStore) GetMessage(ctx context.Context, threadID string, seq int) (*models.Message, error) {
	msg := &models.Message{}
	err := s.pool.QueryRow(ctx, `
		SELECT thread_id, seq, group_id, sender, recipients, subject, body, created_at
		FROM messages WHERE thread_id = $1 AND seq = $2
	`, threadID, seq).Scan(
		&msg.ThreadID,
		&msg.Seq,
		&msg.GroupID,
		&msg.From,
		&msg.To,
		&msg.Subject,
		&msg.Body,
		&msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
func (s *PostgresStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO messages (thread_id, seq, group_id, sender, recipients, subject, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, msg.ThreadID, msg.Seq, msg.GroupID, msg.From, msg.To, msg.Subject, msg.Body, msg.CreatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE threads SET last_seq = $1 WHERE id = $2
	`, msg.Seq, msg.ThreadID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListThreadMessages retrieves a thread's messages in sequence order.
func (s *PostgresStore) ListThreadMessages(ctx context.Context, threadID string) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT thread_id, seq, group_id, sender, recipients, subject, body, created_at
		FROM messages WHERE thread_id = $1 ORDER BY seq
	`, threadID)
	if err != nil {
		return nil, err
	}
	return collectMessageRows(rows)
}

// ListGroupMessages retrieves a group's most recent messages, newest first.
func (s *PostgresStore) ListGroupMessages(ctx context.Context, groupID string, limit int) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT thread_id, seq, group_id, sender, recipients, subject, body, created_at
		FROM messages
		WHERE group_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2
	`, groupID, limit)
	if err != nil {
		return nil, err
	}
	return collectMessageRows(rows)
}

// FindMessagesBySeq retrieves every message with the given sequence
// number, optionally narrowed to one group. Used to detect ambiguous
// bare message IDs.
func (s *PostgresStore) FindMessagesBySeq(ctx context.Context, seq int, groupID string) ([]models.Message, error) {
	var rows pgx.Rows
	var err error
	if groupID != "" {
		rows, err = s.pool.Query(ctx, `
			SELECT thread_id, seq, group_id, sender, recipients, subject, body, created_at
			FROM messages WHERE seq = $1 AND group_id = $2 ORDER BY created_at
		`, seq, groupID)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT thread_id, seq, group_id, sender, recipients, subject, body, created_at
			FROM messages WHERE seq = $1 ORDER BY created_at
		`, seq)
	}
	if err != nil {
		return nil, err
	}
	return collectMessageRows(rows)
}

// ListMessagesForAgent retrieves messages in a group addressed to the
// agent, newest first. Messages the agent sent but does not receive are
// excluded; those come from ListMessagesByAgent. The GIN index on
// recipients serves the ANY match.
func (s *PostgresStore) ListMessagesForAgent(ctx context.Context, agent, groupID string, limit int) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT thread_id, seq, group_id, sender, recipients, subject, body, created_at
		FROM messages
		WHERE group_id = $1 AND $2 = ANY(recipients)
		ORDER BY created_at DESC, seq DESC
		LIMIT $3
	`, groupID, agent, limit)
	if err != nil {
		return nil, err
	}
	return collectMessageRows(rows)
}

// ListMessagesByAgent retrieves messages sent by an agent, newest
// first, optionally narrowed to one group.
func (s *PostgresStore) ListMessagesByAgent(ctx context.Context, agent, groupID string, limit int) ([]models.Message, error) {
	var rows pgx.Rows
	var err error
	if groupID != "" {
		rows, err = s.pool.Query(ctx, `
			SELECT thread_id, seq, group_id, sender, recipients, subject, body, created_at
			FROM messages WHERE sender = $1 AND group_id = $2
			ORDER BY created_at DESC, seq DESC
			LIMIT $3
		`, agent, groupID, limit)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT thread_id, seq, group_id, sender, recipients, subject, body, created_at
			FROM messages WHERE sender = $1
			ORDER BY created_at DESC, seq DESC
			LIMIT $2
		`, agent, limit)
	}
	if err != nil {
		return nil, err
	}
	return collectMessageRows(rows)
}

func collectMessageRows(rows pgx.Rows) ([]models.Message, error) {
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ThreadID,
			&msg.Seq,
			&msg.GroupID,
			&msg.From,
			&msg.To,
			&msg.Subject,
			&msg.Body,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// AppendEvent records an activity log entry.
func (s *PostgresStore) AppendEvent(ctx context.Context, ev *models.Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO events (id, type, group_id, agent, thread_id, seq, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ev.ID, string(ev.Type), ev.GroupID, ev.Agent, ev.ThreadID, ev.Seq, ev.CreatedAt)
	return err
}

// ListEvents retrieves the most recent activity log entries, newest
// first, optionally narrowed to one group.
func (s *PostgresStore) ListEvents(ctx context.Context, groupID string, limit int) ([]models.Event, error) {
	var rows pgx.Rows
	var err error
	if groupID != "" {
		rows, err = s.pool.Query(ctx, `
			SELECT id, type, group_id, agent, thread_id, seq, created_at
			FROM events WHERE group_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`, groupID, limit)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT id, type, group_id, agent, thread_id, seq, created_at
			FROM events
			ORDER BY created_at DESC, id DESC
			LIMIT $1
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
		err := rows.Scan(&ev.ID, &typ, &ev.GroupID, &ev.Agent, &ev.ThreadID, &ev.Seq, &ev.CreatedAt)
		if err != nil {
			return nil, err
		}
		ev.Type = models.EventType(typ)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Reset deletes all data. There is no undo.
func (s *PostgresStore) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		TRUNCATE messages, threads, group_agents, groups, events
	`)
	return err
}
