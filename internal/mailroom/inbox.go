package mailroom

import (
	"context"
	"fmt"
	"strings"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/models"
)

// Defaults for the listing operations. Callers may pass zero to get
// them; anything above MaxListLimit is clamped by the handlers.
const (
	DefaultInboxLimit    = 10
	DefaultPreviewLength = 500
	MaxListLimit         = 100
)

// Inbox lists a group's messages, newest first. With an agent filter,
// only messages addressed to that agent are returned.
func (s *Service) Inbox(ctx context.Context, groupID, agent string, limit int) ([]models.Message, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	if group == nil {
		return nil, &NotFoundError{Resource: "group", ID: groupID}
	}
	if limit <= 0 {
		limit = DefaultInboxLimit
	}

	if agent = strings.TrimSpace(agent); agent != "" {
		msgs, err := s.store.ListMessagesForAgent(ctx, agent, groupID, limit)
		if err != nil {
			return nil, fmt.Errorf("list messages for agent: %w", err)
		}
		return msgs, nil
	}

	msgs, err := s.store.ListGroupMessages(ctx, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("list group messages: %w", err)
	}
	return msgs, nil
}

// Thread returns a thread and its messages in creation order.
func (s *Service) Thread(ctx context.Context, threadID string) (*models.Thread, []models.Message, error) {
	thread, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, nil, fmt.Errorf("get thread: %w", err)
	}
	if thread == nil {
		return nil, nil, &NotFoundError{Resource: "thread", ID: threadID}
	}
	msgs, err := s.store.ListThreadMessages(ctx, threadID)
	if err != nil {
		return nil, nil, fmt.Errorf("list thread messages: %w", err)
	}
	return thread, msgs, nil
}

// SentBy lists messages sent by an agent, newest first, optionally
// narrowed to one group.
func (s *Service) SentBy(ctx context.Context, agent, groupID string, limit int) ([]models.Message, error) {
	agent = strings.TrimSpace(agent)
	if agent == "" {
		return nil, &ValidationError{Msg: "agent is required"}
	}
	if groupID != "" {
		group, err := s.store.GetGroup(ctx, groupID)
		if err != nil {
			return nil, fmt.Errorf("get group: %w", err)
		}
		if group == nil {
			return nil, &NotFoundError{Resource: "group", ID: groupID}
		}
	}
	if limit <= 0 {
		limit = DefaultInboxLimit
	}

	msgs, err := s.store.ListMessagesByAgent(ctx, agent, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages by agent: %w", err)
	}
	return msgs, nil
}

// Events returns recent activity log entries, newest first.
func (s *Service) Events(ctx context.Context, groupID string, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = DefaultInboxLimit
	}
	events, err := s.store.ListEvents(ctx, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Reset wipes the store: messages, threads, groups, and the log. The
// wipe itself becomes the first entry of the fresh log.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	s.recordEvent(ctx, models.EventStoreReset, "", "", "", 0)
	s.logger.Info().Msg("store reset")
	return nil
}

// Preview returns the strict prefix of body used by inbox previews:
// at most length runes, no ellipsis.
func Preview(body string, length int) string {
	if length <= 0 {
		length = DefaultPreviewLength
	}
	runes := []rune(body)
	if len(runes) <= length {
		return body
	}
	return string(runes[:length])
}
