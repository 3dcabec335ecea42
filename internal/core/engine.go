package core

import (
	"time"

	"github.com/rs/zerolog"
)

// RevealDelay is the client-visible countdown between the last submission
// and message delivery.
const RevealDelay = 3500 * time.Millisecond

// Emitter is the transport surface the engine talks to.
type Emitter interface {
	Unicast(connID string, ev *Event)
	Broadcast(roomCode string, ev *Event)
	IsLive(connID string) bool
}

// Stopper cancels a scheduled task. *time.Timer satisfies it.
type Stopper interface {
	Stop() bool
}

// Scheduler runs f after d on the same goroutine that drives the engine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

// Engine implements the room operations. It is not safe for concurrent use;
// the Hub runs every call on a single goroutine.
type Engine struct {
	rooms *Registry
	conns map[string]string // connection id -> room code
	out   Emitter
	sched Scheduler
	log   *zerolog.Logger
	now   func() time.Time

	revealDelay time.Duration
}

// NewEngine builds an engine with an empty registry.
func NewEngine(out Emitter, sched Scheduler, logger *zerolog.Logger) *Engine {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Engine{
		rooms:       NewRegistry(),
		conns:       make(map[string]string),
		out:         out,
		sched:       sched,
		log:         logger,
		now:         time.Now,
		revealDelay: RevealDelay,
	}
}

// Room returns the room for code, if it exists.
func (e *Engine) Room(code string) (*Room, bool) {
	return e.rooms.Get(code)
}

// Join binds connID to a player named username in roomCode, creating the
// room if needed, and brings the connection up to date with the round.
func (e *Engine) Join(connID, roomCode, username string) error {
	code := NormalizeCode(roomCode)
	name := normalizeName(username)
	if code == "" || name == "" {
		return ErrBadRequest
	}

	if prev, ok := e.conns[connID]; ok {
		if room, ok := e.rooms.Get(prev); ok {
			p := room.playerByConn(connID)
			if p != nil && (prev != code || !assignedFrom(p.Name, name)) {
				e.detach(room, connID)
			}
		}
	}

	room, created := e.rooms.GetOrCreate(code)
	if created {
		e.log.Info().Str("room", code).Msg("room created")
	}

	player, isNew := room.reconcile(connID, name, e.out.IsLive)
	e.conns[connID] = code
	room.touch(e.now())
	e.forget(room, room.refreshMembership(e.out.IsLive))

	e.log.Info().
		Str("room", code).
		Str("conn_id", connID).
		Str("player_id", player.ID).
		Str("player", player.Name).
		Bool("new", isNew).
		Str("phase", room.phase.String()).
		Msg("player joined")

	e.out.Unicast(connID, &Event{Kind: EventJoinedRoom, Room: code, Player: player.View()})
	e.broadcastRoomData(room)

	switch room.phase {
	case PhaseWriting:
		e.out.Unicast(connID, &Event{Kind: EventGameStarted, Room: code, Targets: room.targetsFor(player)})
		e.out.Unicast(connID, &Event{Kind: EventStatus, Room: code, Status: room.progress()})
	case PhaseRevealing:
		e.out.Unicast(connID, &Event{Kind: EventAllSubmitted, Room: code})
		if room.delivered {
			e.out.Unicast(connID, &Event{Kind: EventRevealMessages, Room: code, Messages: room.messagesFor(player.ID)})
		}
	}
	return nil
}

// StartGame begins a round and hands every player their targets.
func (e *Engine) StartGame(roomCode string) error {
	room, ok := e.rooms.Get(roomCode)
	if !ok {
		return ErrRoomNotFound
	}
	if len(room.players) < 2 {
		return ErrInsufficientPlayers
	}
	if !room.canStart() {
		return ErrWrongPhase
	}

	room.beginRound()
	room.touch(e.now())

	for _, p := range room.players {
		e.out.Unicast(p.ConnectionID, &Event{
			Kind:    EventGameStarted,
			Room:    room.Code,
			Targets: room.targetsFor(p),
		})
	}

	e.log.Info().
		Str("room", room.Code).
		Int("round", room.round).
		Int("players", len(room.players)).
		Msg("round started")
	return nil
}

// SubmitMessages buffers the sender's messages for their resolved recipients.
// Targets that match no current player are dropped.
func (e *Engine) SubmitMessages(connID, roomCode string, messages []OutgoingMessage) error {
	room, ok := e.rooms.Get(roomCode)
	if !ok {
		return ErrRoomNotFound
	}
	sender := room.playerByConn(connID)
	if sender == nil {
		return ErrNotInRoom
	}
	if room.phase != PhaseWriting {
		return ErrWrongPhase
	}
	if room.hasSubmitted(sender.ID) {
		return ErrAlreadySubmitted
	}

	dropped := 0
	for _, m := range messages {
		target := room.resolveTarget(m.TargetName)
		if target == nil {
			dropped++
			continue
		}
		room.messages = append(room.messages, AddressedMessage{
			RecipientID: target.ID,
			SenderName:  sender.Name,
			Content:     m.Content,
		})
	}
	room.submitted[sender.ID] = struct{}{}
	room.touch(e.now())

	e.log.Debug().
		Str("room", room.Code).
		Str("player_id", sender.ID).
		Int("accepted", len(messages)-dropped).
		Int("dropped", dropped).
		Msg("messages submitted")

	e.out.Broadcast(room.Code, &Event{Kind: EventStatus, Room: room.Code, Status: room.progress()})

	if room.complete() {
		e.beginReveal(room)
	}
	return nil
}

func (e *Engine) beginReveal(room *Room) {
	room.phase = PhaseRevealing
	e.out.Broadcast(room.Code, &Event{Kind: EventAllSubmitted, Room: room.Code})

	round := room.round
	room.reveal = e.sched.AfterFunc(e.revealDelay, func() {
		e.fireReveal(room, round)
	})

	e.log.Info().Str("room", room.Code).Int("round", round).Msg("all submitted, reveal scheduled")
}

// fireReveal delivers only if room is still the registered room for its code
// and still in the round that scheduled the task.
func (e *Engine) fireReveal(room *Room, round int) {
	current, ok := e.rooms.Get(room.Code)
	if !ok || current != room || room.round != round || room.phase != PhaseRevealing || room.delivered {
		e.log.Debug().Str("room", room.Code).Int("round", round).Msg("stale reveal skipped")
		return
	}
	e.distribute(room)
}

// RequestRestart notifies every connection and destroys the room.
func (e *Engine) RequestRestart(roomCode string) error {
	room, ok := e.rooms.Get(roomCode)
	if !ok {
		return ErrRoomNotFound
	}
	e.out.Broadcast(room.Code, &Event{Kind: EventRoomDeleted, Room: room.Code})
	e.destroy(room, "restart")
	return nil
}

// RequestRoomUpdate resends the membership list to connID only.
func (e *Engine) RequestRoomUpdate(connID, roomCode string) error {
	room, ok := e.rooms.Get(roomCode)
	if !ok {
		return ErrRoomNotFound
	}
	e.out.Unicast(connID, e.roomDataEvent(room))
	return nil
}

// Disconnect handles a closed connection. While waiting the player is
// removed; while writing or revealing the slot is kept for a same-name rejoin.
func (e *Engine) Disconnect(connID string) error {
	code, ok := e.conns[connID]
	if !ok {
		return ErrNotInRoom
	}
	room, ok := e.rooms.Get(code)
	if !ok {
		delete(e.conns, connID)
		return ErrRoomNotFound
	}
	e.detach(room, connID)
	return nil
}

// Reap destroys rooms with no live connection that were idle for at least
// idle. It returns the number of rooms destroyed.
func (e *Engine) Reap(now time.Time, idle time.Duration) int {
	reaped := 0
	for _, room := range e.rooms.Rooms() {
		if room.hasLiveConnection(e.out.IsLive) || now.Sub(room.lastActive) < idle {
			continue
		}
		e.destroy(room, "idle")
		reaped++
	}
	return reaped
}

// Snapshot returns a read-only view of one room.
func (e *Engine) Snapshot(roomCode string) (RoomSnapshot, bool) {
	room, ok := e.rooms.Get(roomCode)
	if !ok {
		return RoomSnapshot{}, false
	}
	return room.snapshot(e.out.IsLive), true
}

// Snapshots returns read-only views of all rooms ordered by code.
func (e *Engine) Snapshots() []RoomSnapshot {
	rooms := e.rooms.Rooms()
	out := make([]RoomSnapshot, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.snapshot(e.out.IsLive))
	}
	return out
}

// detach unbinds connID from its player in room according to the phase.
func (e *Engine) detach(room *Room, connID string) {
	delete(e.conns, connID)
	p := room.playerByConn(connID)
	if p == nil {
		return
	}
	room.touch(e.now())

	if room.phase.retainsPlayers() {
		p.ConnectionID = ""
		e.log.Info().Str("room", room.Code).Str("player_id", p.ID).Msg("player disconnected, slot retained")
	} else {
		room.removePlayer(p.ID)
		e.log.Info().Str("room", room.Code).Str("player_id", p.ID).Msg("player left")
		if room.Empty() {
			e.destroy(room, "empty")
			return
		}
	}

	e.forget(room, room.refreshMembership(e.out.IsLive))
	e.broadcastRoomData(room)
}

func (e *Engine) destroy(room *Room, reason string) {
	room.stopReveal()
	e.forget(room, room.players)
	e.rooms.Remove(room.Code)
	e.log.Info().Str("room", room.Code).Str("reason", reason).Msg("room destroyed")
}

// forget drops the connection index entries of players that pointed at room.
func (e *Engine) forget(room *Room, players []*Player) {
	for _, p := range players {
		if code, ok := e.conns[p.ConnectionID]; ok && code == room.Code {
			delete(e.conns, p.ConnectionID)
		}
	}
}

func (e *Engine) roomDataEvent(room *Room) *Event {
	return &Event{
		Kind:   EventRoomData,
		Room:   room.Code,
		Users:  room.Members(),
		HostID: room.hostID,
	}
}

func (e *Engine) broadcastRoomData(room *Room) {
	e.out.Broadcast(room.Code, e.roomDataEvent(room))
}
