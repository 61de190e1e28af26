package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/voxchat/voxgate/internal/models"
)

type createInteractionRequest struct {
	Kind    models.InteractionKind `json:"kind"`
	Command string                 `json:"command,omitempty"`
	Params  map[string]any         `json:"params,omitempty"`
	FeedID  *uuid.UUID             `json:"feed_id,omitempty"`
	DMID    *uuid.UUID             `json:"dm_id,omitempty"`
	BotID   uuid.UUID              `json:"bot_id"`
}

// CreateInteraction registers a deferred command/button round-trip and
// returns the token the bot must present with its follow-up.
func (h *Handler) CreateInteraction(w http.ResponseWriter, r *http.Request) {
	var req createInteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed interaction request")
		return
	}
	if req.Kind != models.InteractionSlashCommand && req.Kind != models.InteractionButton {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "kind must be slash_command or button")
		return
	}

	interaction, err := h.interactions.Create(req.Kind, req.Command, req.Params, userIDFrom(r), req.FeedID, req.DMID, req.BotID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to create interaction")
		return
	}

	writeJSON(w, http.StatusCreated, interaction)
}

type interactionCallbackRequest struct {
	InteractionID string `json:"interaction_id"`
}

// InteractionCallback resolves a deferred response. A miss means the
// token expired or was already used; that is a client-visible condition,
// not a server failure.
func (h *Handler) InteractionCallback(w http.ResponseWriter, r *http.Request) {
	var req interactionCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed callback request")
		return
	}

	interaction := h.interactions.Consume(req.InteractionID)
	if interaction == nil {
		writeError(w, http.StatusGone, "INTERACTION_EXPIRED", "interaction no longer valid")
		return
	}

	writeJSON(w, http.StatusOK, interaction)
}
