package core

import (
	"fmt"
	"strings"
	"time"
)

// Room is one game session keyed by a short code.
// It is only touched from the hub goroutine and needs no locking.
type Room struct {
	Code string

	players   []*Player // join order
	phase     Phase
	hostID    string
	messages  []AddressedMessage
	submitted map[string]struct{} // logical ids that submitted this round

	round     int
	delivered bool
	reveal    Stopper

	createdAt  time.Time
	lastActive time.Time
}

// NewRoom constructs an empty room in the waiting phase.
func NewRoom(code string, now time.Time) *Room {
	return &Room{
		Code:       code,
		phase:      PhaseWaiting,
		submitted:  make(map[string]struct{}),
		createdAt:  now,
		lastActive: now,
	}
}

// Phase returns the current phase.
func (r *Room) Phase() Phase { return r.phase }

// HostID returns the logical id of the current host.
func (r *Room) HostID() string { return r.hostID }

// SubmittedCount returns how many players submitted this round.
func (r *Room) SubmittedCount() int { return len(r.submitted) }

// Len returns the number of players, retained ones included.
func (r *Room) Len() int { return len(r.players) }

// Empty returns true if no players are in the room.
func (r *Room) Empty() bool { return len(r.players) == 0 }

// Members returns the public view of all players in join order.
func (r *Room) Members() []PlayerView {
	out := make([]PlayerView, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p.View())
	}
	return out
}

func (r *Room) playerByName(name string) *Player {
	for _, p := range r.players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (r *Room) playerByConn(connID string) *Player {
	if connID == "" {
		return nil
	}
	for _, p := range r.players {
		if p.ConnectionID == connID {
			return p
		}
	}
	return nil
}

func (r *Room) removePlayer(id string) bool {
	for i, p := range r.players {
		if p.ID == id {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return true
		}
	}
	return false
}

// refreshMembership recomputes the host and, while waiting, drops players
// whose connection is gone. The removed players are returned.
func (r *Room) refreshMembership(isLive func(string) bool) []*Player {
	r.hostID = ""
	for _, p := range r.players {
		if isLive(p.ConnectionID) {
			r.hostID = p.ID
			break
		}
	}
	if r.hostID == "" && len(r.players) > 0 {
		r.hostID = r.players[0].ID
	}

	if r.phase.retainsPlayers() {
		return nil
	}

	var removed []*Player
	kept := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if p.ID == r.hostID || isLive(p.ConnectionID) {
			kept = append(kept, p)
			continue
		}
		removed = append(removed, p)
	}
	r.players = kept
	return removed
}

func (r *Room) hasLiveConnection(isLive func(string) bool) bool {
	for _, p := range r.players {
		if isLive(p.ConnectionID) {
			return true
		}
	}
	return false
}

// targetsFor lists every other current player.
func (r *Room) targetsFor(p *Player) []PlayerView {
	out := make([]PlayerView, 0, len(r.players))
	for _, other := range r.players {
		if other.ID == p.ID {
			continue
		}
		out = append(out, other.View())
	}
	return out
}

// resolveTarget maps a submitted target name to a current player. An exact
// trimmed match wins over a case-insensitive one.
func (r *Room) resolveTarget(target string) *Player {
	trimmed := strings.TrimSpace(target)
	if trimmed == "" {
		return nil
	}
	if p := r.playerByName(trimmed); p != nil {
		return p
	}
	for _, p := range r.players {
		if matchesTarget(p.Name, trimmed) {
			return p
		}
	}
	return nil
}

// canStart reports whether a new round may begin: from waiting, or after the
// previous round's messages were delivered.
func (r *Room) canStart() bool {
	return r.phase == PhaseWaiting || (r.phase == PhaseRevealing && r.delivered)
}

func (r *Room) beginRound() {
	r.stopReveal()
	r.phase = PhaseWriting
	r.messages = nil
	r.submitted = make(map[string]struct{})
	r.delivered = false
	r.round++
}

func (r *Room) hasSubmitted(playerID string) bool {
	_, ok := r.submitted[playerID]
	return ok
}

func (r *Room) complete() bool {
	return len(r.players) > 0 && len(r.submitted) >= len(r.players)
}

func (r *Room) progress() string {
	return fmt.Sprintf("Waiting for friends to send their messages (%d/%d)", len(r.submitted), len(r.players))
}

func (r *Room) stopReveal() {
	if r.reveal != nil {
		r.reveal.Stop()
		r.reveal = nil
	}
}

func (r *Room) touch(now time.Time) {
	r.lastActive = now
}

// PlayerSnapshot is a read-only view of a player for inspection APIs.
type PlayerSnapshot struct {
	ID        string
	Name      string
	Connected bool
}

// RoomSnapshot is a read-only view of a room. It never includes messages.
type RoomSnapshot struct {
	Code       string
	Phase      Phase
	HostID     string
	Players    []PlayerSnapshot
	Submitted  int
	Round      int
	CreatedAt  time.Time
	LastActive time.Time
}

func (r *Room) snapshot(isLive func(string) bool) RoomSnapshot {
	players := make([]PlayerSnapshot, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, PlayerSnapshot{
			ID:        p.ID,
			Name:      p.Name,
			Connected: isLive(p.ConnectionID),
		})
	}
	return RoomSnapshot{
		Code:       r.Code,
		Phase:      r.phase,
		HostID:     r.hostID,
		Players:    players,
		Submitted:  len(r.submitted),
		Round:      r.round,
		CreatedAt:  r.createdAt,
		LastActive: r.lastActive,
	}
}
