// Package app holds the shared mutable state of the collaboration core:
// the connection/room registry and the live meeting roster. All mutation
// goes through these types so the membership maps never diverge.
package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/workmesh/collab/internal/core"
	"github.com/workmesh/collab/internal/domain"
)

type connEntry struct {
	identity domain.Identity
	sender   core.Sender
	rooms    map[domain.RoomKey]struct{}
}

// MemberSnap is a read-only view of one room member.
type MemberSnap struct {
	ConnID   core.ConnID
	Identity domain.Identity
	Sender   core.Sender
}

// Registry maintains the reciprocal connection↔room mapping. It is the
// only component allowed to mutate membership; a connection's room set
// contains a key iff that room's member set contains the connection.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnID]*connEntry
	rooms map[domain.RoomKey]map[core.ConnID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[core.ConnID]*connEntry),
		rooms: make(map[domain.RoomKey]map[core.ConnID]struct{}),
	}
}

// Register binds an authenticated connection. Registering an existing id
// replaces the sender but keeps memberships.
func (r *Registry) Register(id core.ConnID, ident domain.Identity, s core.Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.identity = ident
		e.sender = s
		return
	}
	r.conns[id] = &connEntry{
		identity: ident,
		sender:   s,
		rooms:    make(map[domain.RoomKey]struct{}),
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("user", string(ident.UserID)).Msg("connection registered")
}

// Unregister removes the connection and every membership it held,
// returning the rooms it was in so cleanup can emit departure events.
// The second call for an id reports ok=false; duplicate disconnect
// signals must not replay cleanup.
func (r *Registry) Unregister(id core.ConnID) (domain.Identity, []domain.RoomKey, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return domain.Identity{}, nil, false
	}
	rooms := make([]domain.RoomKey, 0, len(e.rooms))
	for key := range e.rooms {
		rooms = append(rooms, key)
		r.dropMember(key, id)
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Int("rooms", len(rooms)).Msg("connection unregistered")
	return e.identity, rooms, true
}

// Join is idempotent; joining an already-joined room is a no-op.
func (r *Registry) Join(id core.ConnID, key domain.RoomKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	if _, ok := e.rooms[key]; ok {
		return true
	}
	e.rooms[key] = struct{}{}
	members, ok := r.rooms[key]
	if !ok {
		members = make(map[core.ConnID]struct{})
		r.rooms[key] = members
	}
	members[id] = struct{}{}
	log.Debug().Str("module", "app.registry").Str("conn", string(id)).Str("room", string(key)).Msg("joined room")
	return true
}

// Leave on a non-member is a no-op.
func (r *Registry) Leave(id core.ConnID, key domain.RoomKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return
	}
	if _, ok := e.rooms[key]; !ok {
		return
	}
	delete(e.rooms, key)
	r.dropMember(key, id)
	log.Debug().Str("module", "app.registry").Str("conn", string(id)).Str("room", string(key)).Msg("left room")
}

// dropMember removes id from the room's member set; callers hold r.mu.
// Empty member sets are dropped — room existence for document/meeting
// classes lives with the persisted entity, not this map.
func (r *Registry) dropMember(key domain.RoomKey, id core.ConnID) {
	members, ok := r.rooms[key]
	if !ok {
		return
	}
	delete(members, id)
	if len(members) == 0 {
		delete(r.rooms, key)
	}
}

func (r *Registry) MembersOf(key domain.RoomKey) []MemberSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.rooms[key]
	out := make([]MemberSnap, 0, len(members))
	for id := range members {
		if e, ok := r.conns[id]; ok {
			out = append(out, MemberSnap{ConnID: id, Identity: e.identity, Sender: e.sender})
		}
	}
	return out
}

func (r *Registry) RoomsOf(id core.ConnID) []domain.RoomKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return nil
	}
	out := make([]domain.RoomKey, 0, len(e.rooms))
	for key := range e.rooms {
		out = append(out, key)
	}
	return out
}

func (r *Registry) IsMember(id core.ConnID, key domain.RoomKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	_, ok = e.rooms[key]
	return ok
}

func (r *Registry) Identity(id core.ConnID) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return domain.Identity{}, false
	}
	return e.identity, true
}

func (r *Registry) Sender(id core.ConnID) (core.Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return e.sender, true
}
