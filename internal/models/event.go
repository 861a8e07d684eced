package models

import "time"

// EventType classifies activity log entries.
type EventType string

const (
	EventGroupCreated EventType = "group.created"
	EventMessageSent  EventType = "message.sent"
	EventStoreReset   EventType = "store.reset"
)

// Event is an append-only activity log entry. IDs are ULIDs, so
// lexicographic order is creation order.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	GroupID   string    `json:"group_id,omitempty"`
	Agent     string    `json:"agent,omitempty"`
	ThreadID  string    `json:"thread_id,omitempty"`
	Seq       int       `json:"seq,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
