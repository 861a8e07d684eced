package store

import (
	"context"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/models"
)

// Store defines the persistence interface for groups, threads, messages,
// and the activity log. Both PostgresStore and SQLiteStore implement it.
// Lookup methods return (nil, nil) when the record is absent.
type Store interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Group operations
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	CreateGroup(ctx context.Context, group *models.Group) error
	AddAgents(ctx context.Context, groupID string, agents []string) error
	ListGroups(ctx context.Context) ([]models.Group, error)

	// Thread operations
	GetThread(ctx context.Context, id string) (*models.Thread, error)
	CreateThread(ctx context.Context, thread *models.Thread) error

	// Message operations. CreateMessage inserts the message and advances
	// the owning thread's last_seq in one transaction; the (thread_id,
	// seq) primary key rejects duplicate sequence allocations.
	GetMessage(ctx context.Context, threadID string, seq int) (*models.Message, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListThreadMessages(ctx context.Context, threadID string) ([]models.Message, error)
	ListGroupMessages(ctx context.Context, groupID string, limit int) ([]models.Message, error)
	FindMessagesBySeq(ctx context.Context, seq int, groupID string) ([]models.Message, error)
	ListMessagesForAgent(ctx context.Context, agent, groupID string, limit int) ([]models.Message, error)
	ListMessagesByAgent(ctx context.Context, agent, groupID string, limit int) ([]models.Message, error)

	// Activity log
	AppendEvent(ctx context.Context, ev *models.Event) error
	ListEvents(ctx context.Context, groupID string, limit int) ([]models.Event, error)

	// Reset deletes everything. Irreversible, no soft delete.
	Reset(ctx context.Context) error
}
