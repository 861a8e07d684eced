package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// resetConfirmPhrase must be sent verbatim to wipe the sandbox.
const resetConfirmPhrase = "erase-everything"

// ResetRequest carries the reset confirmation.
type ResetRequest struct {
	Confirm string `json:"confirm"`
}

// Reset handles wiping all groups, threads, messages and events.
// Irreversible; the confirmation phrase is required.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Confirm != resetConfirmPhrase {
		h.Error(w, http.StatusBadRequest, fmt.Sprintf("confirm must be %q", resetConfirmPhrase))
		return
	}

	if err := h.svc.Reset(r.Context()); err != nil {
		h.ServiceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
