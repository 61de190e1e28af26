package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/voxchat/voxgate/internal/services"
)

type syncEvent struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type syncResponse struct {
	Events          []syncEvent `json:"events"`
	ServerTimestamp int64       `json:"server_timestamp"`
	Cursor          string      `json:"cursor,omitempty"`
}

// SyncQuery is the catch-up read. Clients pass either since_timestamp
// (first sync after a gap) or the cursor from their previous page.
func (h *Handler) SyncQuery(w http.ResponseWriter, r *http.Request) {
	q := services.SyncQuery{}

	if v := r.URL.Query().Get("since_timestamp"); v != "" {
		since, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "since_timestamp must be Unix seconds")
			return
		}
		q.Since = since
	}
	if v := r.URL.Query().Get("after"); v != "" {
		after, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "after must be a cursor from a previous response")
			return
		}
		q.After = after
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "limit must be an integer")
			return
		}
		q.Limit = limit
	}
	if v := r.URL.Query().Get("categories"); v != "" {
		q.Categories = strings.Split(v, ",")
	}

	result, err := h.sync.Query(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "sync query failed")
		return
	}

	resp := syncResponse{
		Events:          make([]syncEvent, 0, len(result.Events)),
		ServerTimestamp: time.Now().Unix(),
	}
	for _, entry := range result.Events {
		resp.Events = append(resp.Events, syncEvent{
			Type:      entry.EventType,
			Payload:   entry.Payload,
			Timestamp: entry.CreatedAt,
		})
	}
	if result.Cursor != 0 {
		resp.Cursor = strconv.FormatInt(result.Cursor, 10)
	}

	writeJSON(w, http.StatusOK, resp)
}
