package mailroom

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/models"
)

// ReplySubject derives the subject line for a reply from the thread's
// subject: blank becomes "Re: No subject", an existing "re:" prefix is
// kept as-is (trimmed), anything else gains one "Re: ".
func ReplySubject(subject string) string {
	trimmed := strings.TrimSpace(subject)
	if trimmed == "" {
		return "Re: No subject"
	}
	if len(trimmed) >= 3 && strings.EqualFold(trimmed[:3], "re:") {
		return trimmed
	}
	return "Re: " + trimmed
}

// NormalizeRecipients trims each address and drops entries that are
// empty after trimming. Order is preserved and duplicates are kept;
// deduplication is reply-all policy, not input policy.
func NormalizeRecipients(to []string) []string {
	out := make([]string, 0, len(to))
	for _, addr := range to {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ReplyRecipients derives the one-to-one reply recipient set: just the
// target's sender, unless that is the replier themselves.
func ReplyRecipients(target *models.Message, replier string) ([]string, error) {
	if target.From == replier {
		return nil, &ValidationError{Msg: "no valid recipients"}
	}
	return []string{target.From}, nil
}

// ReplyAllRecipients derives the reply-all set: the target's sender plus
// all its recipients, minus the replier, deduplicated with insertion
// order preserved.
func ReplyAllRecipients(target *models.Message, replier string) ([]string, error) {
	all := append([]string{target.From}, target.To...)
	recipients := lo.Uniq(lo.Filter(all, func(addr string, _ int) bool {
		return addr != replier
	}))
	if len(recipients) == 0 {
		return nil, &ValidationError{Msg: "no valid recipients"}
	}
	return recipients, nil
}

// ResolveReplyTarget returns the message a reply addresses: the one
// named by replyTo, or the thread's latest message when replyTo is
// empty.
func (s *Service) ResolveReplyTarget(ctx context.Context, threadID, replyTo string) (*models.Message, error) {
	thread, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	if thread == nil {
		return nil, &NotFoundError{Resource: "thread", ID: threadID}
	}
	return s.resolveTarget(ctx, thread, replyTo)
}

func (s *Service) resolveTarget(ctx context.Context, thread *models.Thread, replyTo string) (*models.Message, error) {
	if replyTo != "" {
		seq, ok := parseSeq(replyTo)
		if !ok {
			return nil, &NotFoundError{Resource: "message", ID: thread.ID + "/" + replyTo}
		}
		msg, err := s.store.GetMessage(ctx, thread.ID, seq)
		if err != nil {
			return nil, fmt.Errorf("get message: %w", err)
		}
		if msg == nil {
			return nil, &NotFoundError{Resource: "message", ID: thread.ID + "/" + replyTo}
		}
		return msg, nil
	}

	// No explicit target: reply to the latest message. An existing
	// thread with zero messages violates the invariants but must not
	// panic us.
	msgs, err := s.store.ListThreadMessages(ctx, thread.ID)
	if err != nil {
		return nil, fmt.Errorf("list thread messages: %w", err)
	}
	if len(msgs) == 0 {
		return nil, &NotFoundError{
			Resource: "message",
			ID:       thread.ID,
			Msg:      fmt.Sprintf("thread %s has no messages", thread.ID),
		}
	}
	return &msgs[len(msgs)-1], nil
}

// ReplyRequest carries a reply or reply-all. ReplyTo optionally names a
// specific message in the thread; empty targets the latest one.
type ReplyRequest struct {
	ThreadID string
	From     string
	Body     string
	ReplyTo  string
}

// ReplyResult extends CreateMessageResult with the derived recipient
// set and subject, so callers can see who the reply went to.
type ReplyResult struct {
	CreateMessageResult
	Recipients []string
	Subject    string
}

// Reply sends a one-to-one reply to the resolved target's sender.
func (s *Service) Reply(ctx context.Context, req ReplyRequest) (*ReplyResult, error) {
	return s.reply(ctx, req, false)
}

// ReplyAll replies to the resolved target's sender and all its
// recipients, minus the replier.
func (s *Service) ReplyAll(ctx context.Context, req ReplyRequest) (*ReplyResult, error) {
	return s.reply(ctx, req, true)
}

func (s *Service) reply(ctx context.Context, req ReplyRequest, all bool) (*ReplyResult, error) {
	req.From = strings.TrimSpace(req.From)
	req.ThreadID = strings.TrimSpace(req.ThreadID)
	if req.ThreadID == "" {
		return nil, &ValidationError{Msg: "thread_id is required"}
	}
	if req.From == "" {
		return nil, &ValidationError{Msg: "from is required"}
	}
	if req.Body == "" {
		return nil, &ValidationError{Msg: "body is required"}
	}

	thread, err := s.store.GetThread(ctx, req.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	if thread == nil {
		return nil, &NotFoundError{Resource: "thread", ID: req.ThreadID}
	}

	target, err := s.resolveTarget(ctx, thread, req.ReplyTo)
	if err != nil {
		return nil, err
	}

	var recipients []string
	if all {
		recipients, err = ReplyAllRecipients(target, req.From)
	} else {
		recipients, err = ReplyRecipients(target, req.From)
	}
	if err != nil {
		return nil, err
	}

	subject := ReplySubject(thread.Subject)
	res, err := s.CreateMessage(ctx, CreateMessageRequest{
		GroupID:  thread.GroupID,
		From:     req.From,
		To:       recipients,
		Subject:  subject,
		Body:     req.Body,
		ThreadID: thread.ID,
	})
	if err != nil {
		return nil, err
	}

	return &ReplyResult{CreateMessageResult: *res, Recipients: recipients, Subject: subject}, nil
}
