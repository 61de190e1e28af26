package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/voxchat/voxgate/internal/models"
)

// DefaultSendBuffer is the per-connection outbound queue depth. A
// connection that falls this many events behind is disconnected.
const DefaultSendBuffer = 256

// Connection is one live client transport session. The transport layer
// drains Outbound() to the socket; the hub only ever enqueues.
type Connection struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time

	send      chan models.EventEnvelope
	done      chan struct{}
	closeOnce sync.Once
}

func NewConnection(userID uuid.UUID, buffer int) *Connection {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Connection{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: time.Now(),
		send:      make(chan models.EventEnvelope, buffer),
		done:      make(chan struct{}),
	}
}

// Enqueue hands an event to the connection without blocking. Returns
// false when the connection is closed or its buffer is full; the caller
// decides what to do with the connection in that case.
func (c *Connection) Enqueue(event models.EventEnvelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// Outbound is drained by the transport's write pump.
func (c *Connection) Outbound() <-chan models.EventEnvelope {
	return c.send
}

// Done is closed exactly once, when the connection is torn down.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
