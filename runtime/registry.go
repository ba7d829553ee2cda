// Package runtime handles live connections, message persistence ordering,
// and fan-out dispatch. It orchestrates the system without containing
// business rules; those live in domain and repositories.
package runtime

import (
	"sync"

	"github.com/google/uuid"

	"social-chat/contract"
	"social-chat/domain"
	"social-chat/errors"
)

type set map[contract.ConnectionID]struct{}

type connection struct {
	id       contract.ConnectionID
	identity domain.Identity
	room     domain.RoomKey
	sink     contract.EventSink
}

// Registry tracks live connections and which room each one observes.
// It owns the live set exclusively; handlers receive it by reference, there
// is no package-level singleton. All methods are safe for concurrent use
// from independent connection-handling goroutines.
type Registry struct {
	mu          sync.RWMutex
	connections map[contract.ConnectionID]*connection
	roomMembers map[domain.RoomKey]set
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[contract.ConnectionID]*connection),
		roomMembers: make(map[domain.RoomKey]set),
	}
}

// Register binds an authenticated identity and its delivery sink to a new
// connection id. Every connection starts in the general room.
func (r *Registry) Register(identity domain.Identity, sink contract.EventSink) contract.ConnectionID {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn := &connection{
		id:       uuid.New(),
		identity: identity,
		room:     domain.GeneralRoom,
		sink:     sink,
	}
	r.connections[conn.id] = conn
	r.subscribe(conn.id, domain.GeneralRoom)
	return conn.id
}

// SetRoom moves a connection's subscription to another room. Only the
// subscription changes; identity and sink stay bound. Idempotent.
func (r *Registry) SetRoom(id contract.ConnectionID, room domain.RoomKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[id]
	if !ok {
		return errors.ErrConnectionNotFound
	}
	if conn.room == room {
		return nil
	}

	r.unsubscribe(id, conn.room)
	conn.room = room
	r.subscribe(id, room)
	return nil
}

// Unregister removes a connection atomically so no later snapshot targets
// it. Unregistering an unknown or already-removed id is a no-op.
func (r *Registry) Unregister(id contract.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[id]
	if !ok {
		return
	}
	delete(r.connections, id)
	r.unsubscribe(id, conn.room)
}

// SubscribersOf returns a point-in-time snapshot of the room's live
// connections. The caller must tolerate the true live set changing between
// snapshot and use; a connection fully unregistered before the snapshot
// began is guaranteed absent.
func (r *Registry) SubscribersOf(room domain.RoomKey) []contract.Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[room]
	if !ok {
		return nil
	}
	subscribers := make([]contract.Subscriber, 0, len(members))
	for id := range members {
		if conn, exists := r.connections[id]; exists {
			subscribers = append(subscribers, contract.Subscriber{
				ID:       conn.id,
				Identity: conn.identity,
				Sink:     conn.sink,
			})
		}
	}
	return subscribers
}

// subscribe and unsubscribe expect the write lock to be held.
func (r *Registry) subscribe(id contract.ConnectionID, room domain.RoomKey) {
	if _, ok := r.roomMembers[room]; !ok {
		r.roomMembers[room] = make(set)
	}
	r.roomMembers[room][id] = struct{}{}
}

func (r *Registry) unsubscribe(id contract.ConnectionID, room domain.RoomKey) {
	if members, ok := r.roomMembers[room]; ok {
		delete(members, id)

		// If no one is left in the room, remove the room entry entirely
		if len(members) == 0 {
			delete(r.roomMembers, room)
		}
	}
}
