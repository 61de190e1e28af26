package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/voxchat/voxgate/internal/models"
)

type dispatchRequest struct {
	Event         models.EventEnvelope `json:"event"`
	TargetUserIDs []uuid.UUID          `json:"target_user_ids,omitempty"`
}

// Dispatch is the entry point domain handlers call after committing
// their own state change. Delivery failures are swallowed at connection
// granularity; only a sync log failure surfaces.
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed dispatch request")
		return
	}
	if req.Event.Type == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "event type is required")
		return
	}

	if err := h.hub.Broadcast(r.Context(), req.Event, req.TargetUserIDs); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to record event")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
