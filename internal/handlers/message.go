package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// MessageResponse represents one message with its full location.
type MessageResponse struct {
	MessageID string   `json:"message_id"`
	ThreadID  string   `json:"thread_id"`
	GroupID   string   `json:"group_id"`
	From      string   `json:"from"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	CreatedAt string   `json:"created_at"`
}

// GetMessage handles fetching one message by ID. Bare IDs are sequence
// numbers and may match several threads; thread_id and group_id query
// parameters narrow the lookup, and an ambiguous result comes back as
// 409 listing every match.
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	seq := chi.URLParam(r, "messageID")
	threadID := r.URL.Query().Get("thread_id")
	groupID := r.URL.Query().Get("group_id")

	msg, err := h.svc.FindMessage(r.Context(), seq, threadID, groupID)
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, MessageResponse{
		MessageID: msg.SeqString(),
		ThreadID:  msg.ThreadID,
		GroupID:   msg.GroupID,
		From:      msg.From,
		To:        msg.To,
		Subject:   msg.Subject,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt.UTC().Format(time.RFC3339),
	})
}
