package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/models"
)

// CreateGroupRequest provisions a group with its initial roster.
type CreateGroupRequest struct {
	ID     string          `json:"id"`
	Agents FlexibleStrings `json:"agents"`
}

// GroupResponse describes a group and its roster.
type GroupResponse struct {
	ID         string   `json:"id"`
	Agents     []string `json:"agents"`
	AgentCount int      `json:"agent_count"`
	CreatedAt  string   `json:"created_at"`
}

// GroupsResponse represents the group listing response.
type GroupsResponse struct {
	Groups []GroupResponse `json:"groups"`
	Count  int             `json:"count"`
}

func groupResponse(group *models.Group) GroupResponse {
	return GroupResponse{
		ID:         group.ID,
		Agents:     group.Agents,
		AgentCount: len(group.Agents),
		CreatedAt:  group.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateGroup handles provisioning a new group.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	group, err := h.svc.CreateGroup(r.Context(), req.ID, req.Agents)
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, groupResponse(group))
}

// ListGroups handles listing all groups with their rosters.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.Groups(r.Context())
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	resp := GroupsResponse{
		Groups: make([]GroupResponse, len(groups)),
		Count:  len(groups),
	}
	for i := range groups {
		resp.Groups[i] = groupResponse(&groups[i])
	}

	h.JSON(w, http.StatusOK, resp)
}

// AddAgentsRequest extends a group's roster.
type AddAgentsRequest struct {
	Agents FlexibleStrings `json:"agents"`
}

// AddAgents handles adding agents to an existing group. Agents already
// on the roster are skipped.
func (h *Handler) AddAgents(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	var req AddAgentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	group, err := h.svc.AddAgents(r.Context(), groupID, req.Agents)
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, groupResponse(group))
}
