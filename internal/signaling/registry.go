package signaling

import "sync"

// Registry owns the room id -> member set mapping. Rooms are created
// implicitly on first join and discarded when the last member leaves, so a
// drained room is indistinguishable from one that never existed.
//
// The hub is the only writer in production, but the registry carries its own
// lock so it stays safe when handed to other components (the HTTP layer reads
// it for service info).
type Registry struct {
	mu    sync.Mutex
	rooms map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[string]struct{})}
}

// Join adds memberID to roomID, creating the room if absent, and returns the
// member count before the join. Joining a room you are already in is a no-op.
func (r *Registry) Join(roomID, memberID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[roomID] = members
	}
	before := len(members)
	members[memberID] = struct{}{}
	return before
}

// Leave removes memberID from roomID. Unknown rooms and members are no-ops,
// so leaving twice is safe. An emptied room is deleted.
func (r *Registry) Leave(roomID, memberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, memberID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// Exists reports whether roomID currently has at least one member.
func (r *Registry) Exists(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[roomID]) > 0
}

// Members returns a snapshot of the member ids in roomID.
func (r *Registry) Members(roomID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[roomID]
	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// RoomCount returns the number of occupied rooms.
func (r *Registry) RoomCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
