// Package mailroom implements the sandbox's core messaging logic:
// per-thread sequence allocation, reply target resolution, recipient
// derivation, and message lookup across threads. It keeps no state of
// its own beyond an in-flight lock table; everything lives in the store.
package mailroom

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/ident"
	"github.com/andybrowning5/Simple-Email-Sandbox/internal/metrics"
	"github.com/andybrowning5/Simple-Email-Sandbox/internal/models"
	"github.com/andybrowning5/Simple-Email-Sandbox/internal/store"
)

// maxBodyBytes caps message bodies independently of the HTTP layer's
// request size limit, so CLI and library callers hit the same wall.
const maxBodyBytes = 64 * 1024

// Service exposes the mailroom operations. All methods are safe for
// concurrent use; appends to the same thread are serialized internally.
type Service struct {
	store  store.Store
	logger zerolog.Logger
	locks  *keyedMutex
}

// New creates a Service on top of the given store.
func New(st store.Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  st,
		logger: logger,
		locks:  newKeyedMutex(),
	}
}

// CreateMessageRequest carries everything needed to send a message.
// An empty ThreadID starts a new thread.
type CreateMessageRequest struct {
	GroupID  string
	From     string
	To       []string
	Subject  string
	Body     string
	ThreadID string
}

// CreateMessageResult reports where the message landed.
type CreateMessageResult struct {
	ThreadID  string
	Seq       int
	NewThread bool
}

// CreateMessage validates a send, allocates the next sequence number,
// and persists the message (plus a new thread when no ThreadID was
// given). Sequence numbers are always computed server-side from the
// current thread state; client-supplied values are never honored.
func (s *Service) CreateMessage(ctx context.Context, req CreateMessageRequest) (*CreateMessageResult, error) {
	req.GroupID = strings.TrimSpace(req.GroupID)
	req.From = strings.TrimSpace(req.From)
	req.Subject = strings.TrimSpace(req.Subject)
	req.ThreadID = strings.TrimSpace(req.ThreadID)
	req.To = NormalizeRecipients(req.To)

	if req.GroupID == "" {
		return nil, &ValidationError{Msg: "group_id is required"}
	}
	if req.From == "" {
		return nil, &ValidationError{Msg: "from is required"}
	}
	if req.Body == "" {
		return nil, &ValidationError{Msg: "body is required"}
	}
	if len(req.Body) > maxBodyBytes {
		return nil, &ValidationError{Msg: fmt.Sprintf("body too long (max %d bytes)", maxBodyBytes)}
	}
	if len(req.To) == 0 {
		return nil, &ValidationError{Msg: "no valid recipients"}
	}

	group, err := s.EnsureGroup(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if err := checkMembership(group, req.From, req.To); err != nil {
		return nil, err
	}

	if req.ThreadID == "" {
		return s.startThread(ctx, req)
	}
	return s.appendToThread(ctx, req)
}

// startThread persists a fresh thread and its first message (seq 0).
func (s *Service) startThread(ctx context.Context, req CreateMessageRequest) (*CreateMessageResult, error) {
	plan := planMessage(req, nil, false, time.Now().UTC())

	if err := s.store.CreateThread(ctx, plan.Thread); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	if err := s.store.CreateMessage(ctx, plan.Message); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	metrics.ThreadsCreated.Inc()
	s.recordEvent(ctx, models.EventMessageSent, req.GroupID, req.From, plan.Thread.ID, 0)
	s.logger.Debug().
		Str("group", req.GroupID).
		Str("thread", plan.Thread.ID).
		Str("from", req.From).
		Msg("thread started")

	return &CreateMessageResult{ThreadID: plan.Thread.ID, Seq: 0, NewThread: true}, nil
}

// appendToThread allocates last_seq+1 under the thread's lock and
// persists the message. The store's transactional insert plus the
// (thread_id, seq) primary key back the lock up: a duplicate allocation
// fails instead of overwriting.
func (s *Service) appendToThread(ctx context.Context, req CreateMessageRequest) (*CreateMessageResult, error) {
	unlock := s.locks.Lock(req.ThreadID)
	defer unlock()

	thread, err := s.store.GetThread(ctx, req.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	if thread == nil {
		return nil, &NotFoundError{Resource: "thread", ID: req.ThreadID}
	}
	if thread.GroupID != req.GroupID {
		return nil, &ValidationError{Msg: fmt.Sprintf("thread %s belongs to group %s, not %s",
			thread.ID, thread.GroupID, req.GroupID)}
	}

	// last_seq 0 is ambiguous: it marks both a thread whose first
	// message is 0 and a thread that never got one. Only the presence
	// of message 0 decides which.
	hasFirst := true
	if thread.LastSeq == 0 {
		first, err := s.store.GetMessage(ctx, thread.ID, 0)
		if err != nil {
			return nil, fmt.Errorf("get message: %w", err)
		}
		hasFirst = first != nil
	}

	plan := planMessage(req, thread, hasFirst, time.Now().UTC())
	if err := s.store.CreateMessage(ctx, plan.Message); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.recordEvent(ctx, models.EventMessageSent, req.GroupID, req.From, thread.ID, plan.Message.Seq)
	s.logger.Debug().
		Str("group", req.GroupID).
		Str("thread", thread.ID).
		Int("seq", plan.Message.Seq).
		Str("from", req.From).
		Msg("message appended")

	return &CreateMessageResult{ThreadID: thread.ID, Seq: plan.Message.Seq, NewThread: false}, nil
}

// messagePlan is the outcome of planning a send: the records to persist,
// computed without touching storage.
type messagePlan struct {
	Thread  *models.Thread // set when a new thread must be created first
	Message *models.Message
}

// planMessage decides thread and sequence number for a send. With a nil
// thread it plans a fresh one with message 0. Otherwise the next number
// is last_seq+1, except for the empty-thread case flagged by hasFirst,
// which restarts at 0 to keep the sequence gap-free.
func planMessage(req CreateMessageRequest, thread *models.Thread, hasFirst bool, now time.Time) messagePlan {
	if thread == nil {
		t := &models.Thread{
			ID:        ident.NewThreadID(),
			GroupID:   req.GroupID,
			Subject:   req.Subject,
			Creator:   req.From,
			LastSeq:   0,
			CreatedAt: now,
		}
		return messagePlan{Thread: t, Message: buildMessage(req, t.ID, 0, now)}
	}

	seq := thread.LastSeq + 1
	if thread.LastSeq == 0 && !hasFirst {
		seq = 0
	}
	return messagePlan{Message: buildMessage(req, thread.ID, seq, now)}
}

func buildMessage(req CreateMessageRequest, threadID string, seq int, now time.Time) *models.Message {
	return &models.Message{
		ThreadID:  threadID,
		Seq:       seq,
		GroupID:   req.GroupID,
		From:      req.From,
		To:        req.To,
		Subject:   req.Subject,
		Body:      req.Body,
		CreatedAt: now,
	}
}

// EnsureGroup is an idempotent get-or-create: a missing group is
// materialized with an empty roster, so sends never hard-fail just
// because nobody provisioned the group object yet (the membership check
// then rejects them with the real reason).
func (s *Service) EnsureGroup(ctx context.Context, groupID string) (*models.Group, error) {
	if !groupIDRegex.MatchString(groupID) {
		return nil, &ValidationError{Msg: fmt.Sprintf("invalid group id %q: want %s", groupID, groupIDPattern)}
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	if group != nil {
		return group, nil
	}

	group = &models.Group{ID: groupID, Agents: []string{}, CreatedAt: time.Now().UTC()}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		// Lost a creation race; the existing row wins.
		existing, getErr := s.store.GetGroup(ctx, groupID)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("create group: %w", err)
	}

	metrics.GroupsCreated.Inc()
	s.recordEvent(ctx, models.EventGroupCreated, groupID, "", "", 0)
	return group, nil
}

// recordEvent appends to the activity log. Log writes are best-effort:
// a failure is logged, never surfaced to the caller.
func (s *Service) recordEvent(ctx context.Context, typ models.EventType, groupID, agent, threadID string, seq int) {
	ev := &models.Event{
		ID:        ident.NewEventID(),
		Type:      typ,
		GroupID:   groupID,
		Agent:     agent,
		ThreadID:  threadID,
		Seq:       seq,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AppendEvent(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("type", string(typ)).Msg("failed to append event")
	}
}
