package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/mailroom"
)

// AgentMessagesResponse lists messages sent by one agent.
type AgentMessagesResponse struct {
	Agent    string         `json:"agent"`
	GroupID  string         `json:"group_id,omitempty"`
	Messages []InboxMessage `json:"messages"`
	Count    int            `json:"count"`
}

// AgentMessages handles listing messages an agent sent, newest first,
// optionally narrowed to one group.
func (h *Handler) AgentMessages(w http.ResponseWriter, r *http.Request) {
	agent := chi.URLParam(r, "agent")
	groupID := r.URL.Query().Get("group_id")
	limit := parseLimit(r, mailroom.DefaultInboxLimit)

	msgs, err := h.svc.SentBy(r.Context(), agent, groupID, limit)
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, AgentMessagesResponse{
		Agent:    agent,
		GroupID:  groupID,
		Messages: inboxMessages(msgs, 0),
		Count:    len(msgs),
	})
}
