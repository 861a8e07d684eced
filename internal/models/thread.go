package models

import "time"

// Thread is an ordered conversation inside a group.
//
// LastSeq is the sequence number of the most recently appended message.
// A freshly created thread carries LastSeq 0 before its first message is
// written, the same value it has after message 0 lands; callers that need
// to tell the two states apart must consult the message list.
type Thread struct {
	ID        string    `json:"id"`       // UUIDv7, time-ordered
	GroupID   string    `json:"group_id"`
	Subject   string    `json:"subject"`
	Creator   string    `json:"creator"`
	LastSeq   int       `json:"last_seq"`
	CreatedAt time.Time `json:"created_at"`
}
