// Package ident generates the identifiers the sandbox hands out.
package ident

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewThreadID returns a time-ordered UUID v7 for a new thread.
func NewThreadID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewEventID returns a ULID for an activity log entry. ULIDs sort
// lexicographically by creation time, which the log relies on.
func NewEventID() string {
	return ulid.Make().String()
}
