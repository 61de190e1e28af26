package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/voxchat/voxgate/internal/models"
)

// UserPresence reports one user's presence. Unknown users read as
// offline rather than 404ing: absence of a presence key is the offline
// state, not an error.
func (h *Handler) UserPresence(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "userID must be a uuid")
		return
	}

	presence, err := h.presence.GetPresence(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "presence lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, presence)
}

const maxBulkPresence = 100

type bulkPresenceResponse struct {
	Presence []models.Presence `json:"presence"`
}

// BulkPresence decorates a roster in one call: user_ids is a
// comma-separated list, answered in one redis round trip.
func (h *Handler) BulkPresence(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("user_ids")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "user_ids is required")
		return
	}

	parts := strings.Split(raw, ",")
	if len(parts) > maxBulkPresence {
		parts = parts[:maxBulkPresence]
	}

	userIDs := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(part)
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "user_ids must be a comma-separated list of uuids")
			return
		}
		userIDs = append(userIDs, id)
	}

	presenceMap, err := h.presence.GetBulkPresence(r.Context(), userIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "presence lookup failed")
		return
	}

	resp := bulkPresenceResponse{Presence: make([]models.Presence, 0, len(userIDs))}
	for _, id := range userIDs {
		if presence, ok := presenceMap[id]; ok {
			resp.Presence = append(resp.Presence, presence)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
