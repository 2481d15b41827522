package room

import "fmt"

// Registry is the table of live rooms keyed by name. Like Room it is owned
// by the reactor goroutine; sibling front-ends get read access only through
// that goroutine.
type Registry struct {
	rooms map[string]*Room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// SeedLobbies creates the permanent matchmaking lobbies #Lob_<type>_<i>.
// They live for the process lifetime.
func (reg *Registry) SeedLobbies(count, gameType, capacity int) {
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("#Lob_%d_%d", gameType, i)
		lobby := New(name, "", gameType, true)
		lobby.SetMaxUsers(capacity)
		reg.rooms[name] = lobby
	}
}

// Get looks up a room by name.
func (reg *Registry) Get(name string) (*Room, bool) {
	r, ok := reg.rooms[name]
	return r, ok
}

// Add inserts a room. An existing room under the same name is replaced; the
// caller decides whether that is acceptable.
func (reg *Registry) Add(r *Room) {
	reg.rooms[r.Name()] = r
}

// Remove deletes a room by name. Permanent rooms are never removed.
func (reg *Registry) Remove(name string) {
	if r, ok := reg.rooms[name]; ok && !r.IsPermanent() {
		delete(reg.rooms, name)
	}
}

// All returns a snapshot of every room.
func (reg *Registry) All() []*Room {
	out := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		out = append(out, r)
	}
	return out
}

// Count returns the number of live rooms.
func (reg *Registry) Count() int { return len(reg.rooms) }
