package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/mailroom"
	"github.com/andybrowning5/Simple-Email-Sandbox/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	svc   *mailroom.Service
	store store.Store
	redis *store.RedisStore
}

// NewHandler creates a new Handler with the given service and stores.
// redis may be nil; it only serves the health check.
func NewHandler(svc *mailroom.Service, st store.Store, redis *store.RedisStore) *Handler {
	return &Handler{svc: svc, store: st, redis: redis}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// AmbiguousResponse lists every location a bare message ID matched.
type AmbiguousResponse struct {
	Error   string              `json:"error"`
	Matches []mailroom.Location `json:"matches"`
}

// ServiceError translates mailroom errors onto HTTP status codes:
// validation 400, not found 404, ambiguous lookup 409 with every match
// in the body, anything else a generic 500.
func (h *Handler) ServiceError(w http.ResponseWriter, err error) {
	var validationErr *mailroom.ValidationError
	var notFoundErr *mailroom.NotFoundError
	var ambiguousErr *mailroom.AmbiguousError

	switch {
	case errors.As(err, &validationErr):
		h.Error(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &ambiguousErr):
		h.JSON(w, http.StatusConflict, AmbiguousResponse{
			Error:   ambiguousErr.Error(),
			Matches: ambiguousErr.Locations,
		})
	case errors.As(err, &notFoundErr):
		h.Error(w, http.StatusNotFound, notFoundErr.Error())
	default:
		h.Error(w, http.StatusInternalServerError, "internal error")
	}
}

// parseLimit reads the limit query parameter, falling back to def and
// capping at the listing maximum.
func parseLimit(r *http.Request, def int) int {
	limit := def
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > mailroom.MaxListLimit {
		limit = mailroom.MaxListLimit
	}
	return limit
}
