package mailroom

import (
	"context"
	"fmt"
	"strconv"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/models"
)

// parseSeq accepts only the canonical decimal rendering of a sequence
// number: "0", "7", "12". Signs, spaces, and leading zeros find nothing.
func parseSeq(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || strconv.Itoa(n) != s {
		return 0, false
	}
	return n, true
}

// FindMessage looks a message up by its sequence number. With a thread
// id it is a direct composite fetch. Without one, every thread holds a
// message "0" and low numbers recur, so the scan (optionally narrowed
// by group) can hit several threads: a single match is returned, zero
// is not-found, and several is an AmbiguousError naming each location
// so the caller can resupply thread_id.
func (s *Service) FindMessage(ctx context.Context, seqStr, threadID, groupID string) (*models.Message, error) {
	if seqStr == "" {
		return nil, &ValidationError{Msg: "message id is required"}
	}
	seq, ok := parseSeq(seqStr)
	if !ok {
		return nil, &NotFoundError{Resource: "message", ID: seqStr}
	}

	if threadID != "" {
		msg, err := s.store.GetMessage(ctx, threadID, seq)
		if err != nil {
			return nil, fmt.Errorf("get message: %w", err)
		}
		if msg == nil {
			return nil, &NotFoundError{Resource: "message", ID: threadID + "/" + seqStr}
		}
		return msg, nil
	}

	matches, err := s.store.FindMessagesBySeq(ctx, seq, groupID)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, &NotFoundError{Resource: "message", ID: seqStr}
	case 1:
		return &matches[0], nil
	}

	locs := make([]Location, len(matches))
	for i, m := range matches {
		locs[i] = Location{GroupID: m.GroupID, ThreadID: m.ThreadID}
	}
	return nil, &AmbiguousError{Seq: seqStr, Locations: locs}
}
