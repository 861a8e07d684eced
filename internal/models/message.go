package models

import (
	"strconv"
	"time"
)

// Message is one email in a thread. Its identity is the composite
// (ThreadID, Seq): sequence numbers start at 0 in every thread, so a
// bare Seq is only unique within its thread.
type Message struct {
	ThreadID  string    `json:"thread_id"`
	Seq       int       `json:"seq"`
	GroupID   string    `json:"group_id"`
	From      string    `json:"from"`
	To        []string  `json:"to"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// SeqString renders the sequence number the way the API exposes it:
// the canonical decimal string ("0", "1", ...).
func (m *Message) SeqString() string {
	return strconv.Itoa(m.Seq)
}
