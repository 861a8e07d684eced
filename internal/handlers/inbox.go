package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/mailroom"
	"github.com/andybrowning5/Simple-Email-Sandbox/internal/models"
)

// InboxMessage is one message in listing responses.
type InboxMessage struct {
	MessageID string   `json:"message_id"`
	ThreadID  string   `json:"thread_id"`
	From      string   `json:"from"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	CreatedAt string   `json:"created_at"`
}

// InboxResponse represents the inbox listing response.
type InboxResponse struct {
	GroupID  string         `json:"group_id"`
	Agent    string         `json:"agent,omitempty"`
	Messages []InboxMessage `json:"messages"`
	Count    int            `json:"count"`
}

// inboxMessages converts store records for responses. A positive
// previewLen cuts each body to that strict prefix.
func inboxMessages(msgs []models.Message, previewLen int) []InboxMessage {
	out := make([]InboxMessage, len(msgs))
	for i, msg := range msgs {
		body := msg.Body
		if previewLen > 0 {
			body = mailroom.Preview(body, previewLen)
		}
		out[i] = InboxMessage{
			MessageID: msg.SeqString(),
			ThreadID:  msg.ThreadID,
			From:      msg.From,
			To:        msg.To,
			Subject:   msg.Subject,
			Body:      body,
			CreatedAt: msg.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return out
}

// Inbox handles listing a group's recent messages, newest first, with
// full bodies. The agent query parameter narrows to messages addressed
// to that agent.
func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	agent := r.URL.Query().Get("agent")
	limit := parseLimit(r, mailroom.DefaultInboxLimit)

	msgs, err := h.svc.Inbox(r.Context(), groupID, agent, limit)
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, InboxResponse{
		GroupID:  groupID,
		Agent:    agent,
		Messages: inboxMessages(msgs, 0),
		Count:    len(msgs),
	})
}

// InboxPreview is Inbox with each body cut to its first preview_length
// characters (default 500), no ellipsis.
func (h *Handler) InboxPreview(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	agent := r.URL.Query().Get("agent")
	limit := parseLimit(r, mailroom.DefaultInboxLimit)

	previewLen := mailroom.DefaultPreviewLength
	if v := r.URL.Query().Get("preview_length"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			previewLen = n
		}
	}

	msgs, err := h.svc.Inbox(r.Context(), groupID, agent, limit)
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, InboxResponse{
		GroupID:  groupID,
		Agent:    agent,
		Messages: inboxMessages(msgs, previewLen),
		Count:    len(msgs),
	})
}
