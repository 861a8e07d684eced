package mailroom

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed or rejected input: missing fields,
// empty recipient lists, roster membership failures. Nothing is written
// when one is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NotFoundError reports an unknown group, thread, or message.
type NotFoundError struct {
	Resource string // "group", "thread", "message"
	ID       string
	Msg      string // optional override of the default message
}

func (e *NotFoundError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// Location identifies one thread holding a matching message.
type Location struct {
	GroupID  string `json:"group_id"`
	ThreadID string `json:"thread_id"`
}

// AmbiguousError reports a message id that exists in more than one
// thread. The caller must retry with an explicit thread id; Locations
// lists every candidate.
type AmbiguousError struct {
	Seq       string
	Locations []Location
}

func (e *AmbiguousError) Error() string {
	ids := make([]string, len(e.Locations))
	for i, loc := range e.Locations {
		ids[i] = loc.ThreadID
	}
	return fmt.Sprintf("message id %s is ambiguous: found in threads %s (pass thread_id to disambiguate)",
		e.Seq, strings.Join(ids, ", "))
}
