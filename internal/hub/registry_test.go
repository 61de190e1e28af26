package hub

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterMultiDevice(t *testing.T) {
	registry := NewRegistry()
	userID := uuid.New()

	// Two devices for the same user
	conn1 := NewConnection(userID, 8)
	conn2 := NewConnection(userID, 8)
	registry.Register(conn1)
	registry.Register(conn2)

	assert.Equal(t, 2, registry.CountForUser(userID))

	conns := registry.ConnectionsFor([]uuid.UUID{userID})
	assert.Len(t, conns, 2)
}

func TestRegistry_UnregisterIdempotent(t *testing.T) {
	registry := NewRegistry()
	userID := uuid.New()

	conn := NewConnection(userID, 8)
	registry.Register(conn)

	remaining := registry.Unregister(conn)
	assert.Equal(t, 0, remaining)

	// Second removal is a no-op
	remaining = registry.Unregister(conn)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, 0, registry.CountForUser(userID))
}

func TestRegistry_UnregisterLeavesSiblings(t *testing.T) {
	registry := NewRegistry()
	userID := uuid.New()

	conn1 := NewConnection(userID, 8)
	conn2 := NewConnection(userID, 8)
	registry.Register(conn1)
	registry.Register(conn2)

	remaining := registry.Unregister(conn1)
	assert.Equal(t, 1, remaining)

	conns := registry.ConnectionsFor([]uuid.UUID{userID})
	require.Len(t, conns, 1)
	assert.Equal(t, conn2.ID, conns[0].ID)
}

func TestRegistry_ConnectionsForDeduplicatesTargets(t *testing.T) {
	registry := NewRegistry()
	userID := uuid.New()

	conn := NewConnection(userID, 8)
	registry.Register(conn)

	// The same user named twice still yields the connection once
	conns := registry.ConnectionsFor([]uuid.UUID{userID, userID})
	assert.Len(t, conns, 1)
}

func TestRegistry_AllSnapshotsEveryConnection(t *testing.T) {
	registry := NewRegistry()

	for i := 0; i < 10; i++ {
		registry.Register(NewConnection(uuid.New(), 8))
	}

	assert.Len(t, registry.All(), 10)
}

func TestRegistry_ConcurrentRegisterUnregister(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			userID := uuid.New()
			conn := NewConnection(userID, 8)
			registry.Register(conn)
			registry.Unregister(conn)
		}()
	}
	wg.Wait()

	assert.Empty(t, registry.All())
}
