package hub

import (
	"sync"

	"github.com/google/uuid"
)

const registryShards = 32

// Registry maps user ids to their live connections. It is sharded by
// user id so handshakes and disconnects for unrelated users never
// contend on the same lock.
type Registry struct {
	shards [registryShards]registryShard
}

type registryShard struct {
	mu    sync.RWMutex
	users map[uuid.UUID]map[*Connection]struct{}
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].users = make(map[uuid.UUID]map[*Connection]struct{})
	}
	return r
}

func (r *Registry) shardFor(userID uuid.UUID) *registryShard {
	// uuid bytes are uniformly distributed; the first byte is enough
	return &r.shards[int(userID[0])%registryShards]
}

// Register files the connection under its user. Safe to call from many
// handshake completions concurrently.
func (r *Registry) Register(conn *Connection) {
	shard := r.shardFor(conn.UserID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	conns, ok := shard.users[conn.UserID]
	if !ok {
		conns = make(map[*Connection]struct{})
		shard.users[conn.UserID] = conns
	}
	conns[conn] = struct{}{}
}

// Unregister removes the connection from its user entry. Idempotent:
// removing a connection that is already gone is a no-op. Returns the
// number of connections the user still has.
func (r *Registry) Unregister(conn *Connection) int {
	shard := r.shardFor(conn.UserID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	conns, ok := shard.users[conn.UserID]
	if !ok {
		return 0
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(shard.users, conn.UserID)
		return 0
	}
	return len(conns)
}

// CountForUser reports how many live connections a user currently has.
func (r *Registry) CountForUser(userID uuid.UUID) int {
	shard := r.shardFor(userID)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	return len(shard.users[userID])
}

// ConnectionsFor snapshots the live connections owned by the given
// users. The snapshot is what "live at call time" means for broadcast.
// Repeated user ids are collapsed so no connection appears twice.
func (r *Registry) ConnectionsFor(userIDs []uuid.UUID) []*Connection {
	seen := make(map[uuid.UUID]struct{}, len(userIDs))
	var out []*Connection
	for _, id := range userIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		shard := r.shardFor(id)
		shard.mu.RLock()
		for conn := range shard.users[id] {
			out = append(out, conn)
		}
		shard.mu.RUnlock()
	}
	return out
}

// All snapshots every registered connection.
func (r *Registry) All() []*Connection {
	var out []*Connection
	for i := range r.shards {
		shard := &r.shards[i]
		shard.mu.RLock()
		for _, conns := range shard.users {
			for conn := range conns {
				out = append(out, conn)
			}
		}
		shard.mu.RUnlock()
	}
	return out
}
