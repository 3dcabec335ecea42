package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vovakirdan/whisperbox/internal/utils"
)

// Player is a logical participant. ConnectionID changes across reconnects,
// ID stays stable for the lifetime of the room.
type Player struct {
	ID           string
	Name         string
	ConnectionID string
}

// PlayerView is the public projection of a player.
type PlayerView struct {
	ID   string
	Name string
}

// View returns the public projection of p.
func (p *Player) View() PlayerView {
	return PlayerView{ID: p.ID, Name: p.Name}
}

func normalizeName(raw string) string {
	return strings.TrimSpace(raw)
}

// matchesTarget compares a display name against a submitted target name,
// ignoring case and surrounding whitespace.
func matchesTarget(name, target string) bool {
	return strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(target))
}

// reconcile binds connID to a logical player for the already trimmed name.
//
// An exact name match held by this connection, or by a connection that is no
// longer live, is the same player reconnecting. A match held by another live
// connection is a different person: the newcomer gets the first free
// "name (n)" suffix starting at 2.
//
// A connection already bound to name, or to a "name (n)" it was assigned
// earlier, keeps its player.
func (r *Room) reconcile(connID, name string, isLive func(string) bool) (*Player, bool) {
	if bound := r.playerByConn(connID); bound != nil && assignedFrom(bound.Name, name) {
		return bound, false
	}

	holder := r.playerByName(name)
	if holder == nil {
		return r.addPlayer(connID, name), true
	}
	if holder.ConnectionID == connID || !isLive(holder.ConnectionID) {
		holder.ConnectionID = connID
		return holder, false
	}

	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if r.playerByName(candidate) == nil {
			return r.addPlayer(connID, candidate), true
		}
	}
}

// assignedFrom reports whether assigned is requested or one of its
// "requested (n)" forms with n >= 2.
func assignedFrom(assigned, requested string) bool {
	if assigned == requested {
		return true
	}
	rest, ok := strings.CutPrefix(assigned, requested+" (")
	if !ok {
		return false
	}
	digits, ok := strings.CutSuffix(rest, ")")
	if !ok {
		return false
	}
	n, err := strconv.Atoi(digits)
	return err == nil && n >= 2 && strconv.Itoa(n) == digits
}

func (r *Room) addPlayer(connID, name string) *Player {
	p := &Player{
		ID:           utils.NewID(),
		Name:         name,
		ConnectionID: connID,
	}
	r.players = append(r.players, p)
	return p
}
