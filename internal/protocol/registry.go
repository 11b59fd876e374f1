package protocol

import (
	"sync"

	"github.com/samber/lo"

	"github.com/zoravur/tabletop-sync/internal/auth"
)

// Handle is a live participant connection as seen by the registry and the
// dispatcher. The registry only references handles; liveness is owned by
// the implementation.
type Handle interface {
	ID() string
	Identity() auth.Identity
	// Send must never block the caller for long and must be a no-op once
	// the handle is closed.
	Send(ev Event)
	Closed() bool
}

// Registry maps rooms to the handles that joined them.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[RoomID]map[string]Handle
	byConn map[string]map[RoomID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[RoomID]map[string]Handle),
		byConn: make(map[string]map[RoomID]struct{}),
	}
}

// Join adds h to room. Repeated joins are no-ops. A closed handle is
// refused, so a join racing with LeaveAll can never leave a ghost entry.
func (r *Registry) Join(room RoomID, h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h.Closed() {
		return false
	}

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]Handle)
		r.rooms[room] = members
	}
	members[h.ID()] = h

	joined, ok := r.byConn[h.ID()]
	if !ok {
		joined = make(map[RoomID]struct{})
		r.byConn[h.ID()] = joined
	}
	joined[room] = struct{}{}
	return true
}

func (r *Registry) Leave(room RoomID, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(room, h.ID())
}

// LeaveAll removes h from every room it joined.
func (r *Registry) LeaveAll(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.byConn[h.ID()] {
		r.removeLocked(room, h.ID())
	}
	delete(r.byConn, h.ID())
}

func (r *Registry) removeLocked(room RoomID, id string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if joined, ok := r.byConn[id]; ok {
		delete(joined, room)
		if len(joined) == 0 {
			delete(r.byConn, id)
		}
	}
}

// MembersOf returns a snapshot of the room's members.
func (r *Registry) MembersOf(room RoomID) []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.rooms[room])
}

func (r *Registry) IsMember(room RoomID, h Handle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][h.ID()]
	return ok
}

// roomsOf returns the rooms h has joined.
func (r *Registry) roomsOf(h Handle) []RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.byConn[h.ID()])
}

func (r *Registry) Stats() (rooms, members int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms = len(r.rooms)
	for _, m := range r.rooms {
		members += len(m)
	}
	return rooms, members
}

// RoomView is a read-only summary of one room for diagnostics.
type RoomView struct {
	RoomID  RoomID   `json:"roomId"`
	Members []string `json:"members"`
}

func (r *Registry) SnapshotView() []RoomView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RoomView, 0, len(r.rooms))
	for id, m := range r.rooms {
		out = append(out, RoomView{RoomID: id, Members: lo.Keys(m)})
	}
	return out
}
