package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/voxchat/voxgate/internal/hub"
)

// Wire protocol versions for the realtime transport. Discovery reports
// the supported range so old clients can bail before connecting.
const (
	ProtocolVersion = 2
	MinVersion      = 1
	MaxVersion      = 2
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

type gatewayInfo struct {
	URL             string `json:"url"`
	MediaURL        string `json:"media_url"`
	ProtocolVersion int    `json:"protocol_version"`
	MinVersion      int    `json:"min_version"`
	MaxVersion      int    `json:"max_version"`
}

// GatewayInfo tells a client where to open the realtime transport.
func (h *Handler) GatewayInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, gatewayInfo{
		URL:             h.cfg.GatewayURL,
		MediaURL:        h.cfg.MediaURL,
		ProtocolVersion: ProtocolVersion,
		MinVersion:      MinVersion,
		MaxVersion:      MaxVersion,
	})
}

// GatewayConnect upgrades the request to a websocket, registers the
// connection under the authenticated user and runs the pumps until the
// socket dies. Closure of either pump unregisters the connection.
func (h *Handler) GatewayConnect(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}
	userID, err := h.tokens.Verify(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	conn := hub.NewConnection(userID, h.cfg.SendBuffer)
	h.hub.Register(r.Context(), conn)

	go h.writePump(ws, conn)
	h.readPump(ws, conn)
}

// writePump serializes hub events to the socket and keeps the ping
// ticker going. A write failure tears the connection down, which in
// turn unregisters it.
func (h *Handler) writePump(ws *websocket.Conn, conn *hub.Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case event := <-conn.Outbound():
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(event); err != nil {
				log.Printf("write failed for connection %s: %v", conn.ID, err)
				conn.Close()
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
			// The ping tick doubles as the presence refresh, keeping
			// the TTL ahead of an otherwise idle connection.
			h.hub.Heartbeat(context.Background(), conn)
		case <-conn.Done():
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}

// readPump discards client frames; the gateway is push-only. It exists
// to service pongs and to notice the peer going away.
func (h *Handler) readPump(ws *websocket.Conn, conn *hub.Connection) {
	defer func() {
		h.hub.Unregister(context.Background(), conn)
		ws.Close()
	}()

	ws.SetReadLimit(4096)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
