package hub

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/voxchat/voxgate/internal/models"
	"github.com/voxchat/voxgate/internal/repositories"
)

// EventAppender is the durable side of a broadcast. Implemented by
// services.SyncService; the hub only needs these two calls.
type EventAppender interface {
	IsSyncable(eventType string) bool
	Append(ctx context.Context, eventType string, payload json.RawMessage) (int64, error)
}

// Hub fans events out to live connections and decides, per event type,
// whether the event is also appended to the sync log. One instance per
// process, constructed at startup and passed into every handler.
type Hub struct {
	registry *Registry
	appender EventAppender
	presence repositories.PresenceRepository
}

func New(registry *Registry, appender EventAppender, presence repositories.PresenceRepository) *Hub {
	return &Hub{
		registry: registry,
		appender: appender,
		presence: presence,
	}
}

// Register files a new connection and marks its user online. Presence
// write failures are logged and swallowed; presence is advisory.
func (h *Hub) Register(ctx context.Context, conn *Connection) {
	h.registry.Register(conn)

	if h.presence != nil {
		err := h.presence.SetPresence(ctx, &models.Presence{
			UserID:      conn.UserID,
			Status:      string(models.StatusOnline),
			Connections: h.registry.CountForUser(conn.UserID),
		})
		if err != nil {
			log.Printf("failed to set presence for %s: %v", conn.UserID, err)
		}
	}
}

// Heartbeat refreshes the user's presence entry so its TTL keeps pace
// with a long-lived idle connection. Driven by the transport's ping
// ticker; a connection that stops ticking simply ages out.
func (h *Hub) Heartbeat(ctx context.Context, conn *Connection) {
	if h.presence == nil {
		return
	}
	count := h.registry.CountForUser(conn.UserID)
	if count == 0 {
		return
	}
	err := h.presence.SetPresence(ctx, &models.Presence{
		UserID:      conn.UserID,
		Status:      string(models.StatusOnline),
		Connections: count,
	})
	if err != nil {
		log.Printf("failed to refresh presence for %s: %v", conn.UserID, err)
	}
}

// Unregister removes and closes the connection. Idempotent; safe to
// call from both the read pump and a failed send.
func (h *Hub) Unregister(ctx context.Context, conn *Connection) {
	remaining := h.registry.Unregister(conn)
	conn.Close()

	if h.presence == nil {
		return
	}
	if remaining == 0 {
		if err := h.presence.DeletePresence(ctx, conn.UserID); err != nil {
			log.Printf("failed to clear presence for %s: %v", conn.UserID, err)
		}
		return
	}
	err := h.presence.SetPresence(ctx, &models.Presence{
		UserID:      conn.UserID,
		Status:      string(models.StatusOnline),
		Connections: remaining,
	})
	if err != nil {
		log.Printf("failed to update presence for %s: %v", conn.UserID, err)
	}
}

// Broadcast delivers the event to every matching connection live at call
// time, best-effort and exactly once each. An empty target list means
// every registered connection. If the event type is syncable the event
// is appended to the log exactly once per call, no matter how many
// connections received it; the append error is the only error that
// surfaces to the caller.
//
// A connection whose buffer is full is disconnected rather than allowed
// to stall the broadcast (see DESIGN.md on backpressure). Its failure
// never affects delivery to the others.
func (h *Hub) Broadcast(ctx context.Context, event models.EventEnvelope, targetUserIDs []uuid.UUID) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	var conns []*Connection
	if len(targetUserIDs) == 0 {
		conns = h.registry.All()
	} else {
		conns = h.registry.ConnectionsFor(targetUserIDs)
	}

	for _, conn := range conns {
		if !conn.Enqueue(event) {
			log.Printf("dropping connection %s (user %s): send buffer full or closed", conn.ID, conn.UserID)
			h.Unregister(ctx, conn)
		}
	}

	if h.appender != nil && h.appender.IsSyncable(event.Type) {
		if _, err := h.appender.Append(ctx, event.Type, event.Payload); err != nil {
			return err
		}
	}
	return nil
}

// Close unregisters and closes every connection. Used on shutdown after
// the HTTP server stops accepting upgrades.
func (h *Hub) Close(ctx context.Context) {
	for _, conn := range h.registry.All() {
		h.Unregister(ctx, conn)
	}
}
