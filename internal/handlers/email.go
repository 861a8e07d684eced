package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/mailroom"
	"github.com/andybrowning5/Simple-Email-Sandbox/internal/metrics"
)

// FlexibleStrings decodes either a JSON string or an array of strings,
// so `"to": "bob"` and `"to": ["bob"]` both work.
type FlexibleStrings []string

func (f *FlexibleStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleStrings{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*f = FlexibleStrings(list)
	return nil
}

// WriteEmailRequest represents the send request. ThreadID is optional;
// leaving it empty starts a new thread.
type WriteEmailRequest struct {
	GroupID  string          `json:"group_id"`
	From     string          `json:"from"`
	To       FlexibleStrings `json:"to"`
	Subject  string          `json:"subject"`
	Body     string          `json:"body"`
	ThreadID string          `json:"thread_id,omitempty"`
}

// WriteEmailResponse reports where the message landed. MessageID is the
// sequence number within the thread, rendered as a decimal string.
type WriteEmailResponse struct {
	MessageID        string `json:"message_id"`
	ThreadID         string `json:"thread_id"`
	NewThreadCreated bool   `json:"new_thread_created"`
}

// WriteEmail handles sending a message.
func (h *Handler) WriteEmail(w http.ResponseWriter, r *http.Request) {
	var req WriteEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := h.svc.CreateMessage(r.Context(), mailroom.CreateMessageRequest{
		GroupID:  req.GroupID,
		From:     req.From,
		To:       req.To,
		Subject:  req.Subject,
		Body:     req.Body,
		ThreadID: req.ThreadID,
	})
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	metrics.EmailsWritten.WithLabelValues("write").Inc()

	h.JSON(w, http.StatusCreated, WriteEmailResponse{
		MessageID:        strconv.Itoa(res.Seq),
		ThreadID:         res.ThreadID,
		NewThreadCreated: res.NewThread,
	})
}

// ReplyEmailRequest represents a reply. ReplyTo optionally names a
// message in the thread to respond to; empty targets the latest one.
type ReplyEmailRequest struct {
	From    string `json:"from"`
	Body    string `json:"body"`
	ReplyTo string `json:"reply_to,omitempty"`
}

// ReplyEmailResponse reports the reply's position plus the recipient
// set and subject the server derived for it.
type ReplyEmailResponse struct {
	MessageID string   `json:"message_id"`
	ThreadID  string   `json:"thread_id"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
}

// ReplyEmail handles replying to the target message's sender.
func (h *Handler) ReplyEmail(w http.ResponseWriter, r *http.Request) {
	h.reply(w, r, false)
}

// ReplyAllEmail handles replying to the target message's sender and
// every recipient, minus the replier.
func (h *Handler) ReplyAllEmail(w http.ResponseWriter, r *http.Request) {
	h.reply(w, r, true)
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request, all bool) {
	threadID := chi.URLParam(r, "threadID")

	var req ReplyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	replyReq := mailroom.ReplyRequest{
		ThreadID: threadID,
		From:     req.From,
		Body:     req.Body,
		ReplyTo:  req.ReplyTo,
	}

	var res *mailroom.ReplyResult
	var err error
	kind := "reply"
	if all {
		kind = "reply_all"
		res, err = h.svc.ReplyAll(r.Context(), replyReq)
	} else {
		res, err = h.svc.Reply(r.Context(), replyReq)
	}
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	metrics.EmailsWritten.WithLabelValues(kind).Inc()

	h.JSON(w, http.StatusCreated, ReplyEmailResponse{
		MessageID: strconv.Itoa(res.Seq),
		ThreadID:  res.ThreadID,
		To:        res.Recipients,
		Subject:   res.Subject,
	})
}
