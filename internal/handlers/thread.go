package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// ThreadResponse carries a thread and its messages in sequence order.
type ThreadResponse struct {
	ThreadID  string         `json:"thread_id"`
	GroupID   string         `json:"group_id"`
	Subject   string         `json:"subject"`
	Creator   string         `json:"creator"`
	CreatedAt string         `json:"created_at"`
	Messages  []InboxMessage `json:"messages"`
}

// GetThread handles fetching a thread with its messages in order.
func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	thread, msgs, err := h.svc.Thread(r.Context(), threadID)
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, ThreadResponse{
		ThreadID:  thread.ID,
		GroupID:   thread.GroupID,
		Subject:   thread.Subject,
		Creator:   thread.Creator,
		CreatedAt: thread.CreatedAt.UTC().Format(time.RFC3339),
		Messages:  inboxMessages(msgs, 0),
	})
}
