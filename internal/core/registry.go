package core

import (
	"sort"
	"strings"
	"time"
)

// Registry maps room codes to rooms. Rooms are created on first reference
// and removed explicitly; callers serialize access through the hub.
type Registry struct {
	rooms map[string]*Room
	now   func() time.Time
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		now:   time.Now,
	}
}

// NormalizeCode trims and upper-cases a room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GetOrCreate returns the room for code, creating a waiting room if needed.
// The second result is true when the room was just created.
func (r *Registry) GetOrCreate(code string) (*Room, bool) {
	code = NormalizeCode(code)
	if room, ok := r.rooms[code]; ok {
		return room, false
	}
	room := NewRoom(code, r.now())
	r.rooms[code] = room
	return room, true
}

// Get looks up a room by code.
func (r *Registry) Get(code string) (*Room, bool) {
	room, ok := r.rooms[NormalizeCode(code)]
	return room, ok
}

// Remove deletes the room for code, if any.
func (r *Registry) Remove(code string) {
	delete(r.rooms, NormalizeCode(code))
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	return len(r.rooms)
}

// Rooms returns all rooms ordered by code.
func (r *Registry) Rooms() []*Room {
	out := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
