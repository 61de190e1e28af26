package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/voxchat/voxgate/internal/models"
)

const (
	headerOrigin    = "X-Vox-Origin"
	headerSignature = "X-Vox-Signature"
	headerTimestamp = "X-Vox-Timestamp"
)

// requireFederation gates every federated route behind the guard. The
// body is read once here (the signature covers the raw bytes) and
// restored for the handler; the verified origin rides in the context.
func (h *Handler) requireFederation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "failed to read request body")
			return
		}
		r.Body.Close()

		origin, err := h.guard.VerifyRequest(
			r.Context(),
			r.Header.Get(headerOrigin),
			r.Header.Get(headerSignature),
			r.Header.Get(headerTimestamp),
			body,
		)
		if err != nil {
			writeFederationError(w, err)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		ctx := context.WithValue(r.Context(), originKey, origin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func originFrom(r *http.Request) string {
	origin, _ := r.Context().Value(originKey).(string)
	return origin
}

type federationEventsRequest struct {
	Events []models.EventEnvelope `json:"events"`
}

// FederationEvents re-dispatches events from a verified peer into the
// local hub. Runs strictly behind requireFederation.
func (h *Handler) FederationEvents(w http.ResponseWriter, r *http.Request) {
	var req federationEventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed event batch")
		return
	}

	origin := originFrom(r)
	for _, event := range req.Events {
		if err := h.hub.Broadcast(r.Context(), event, nil); err != nil {
			log.Printf("failed to record federated event from %s: %v", origin, err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to record event")
			return
		}
	}

	// The verified origin stays server-side; peers get no echo.
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
