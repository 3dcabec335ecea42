package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// ErrHubStopped is returned by queries issued after the hub loop exited.
var ErrHubStopped = errors.New("hub stopped")

// HubOptions tunes background housekeeping. Zero values disable the reaper.
type HubOptions struct {
	ReapInterval    time.Duration
	RoomIdleTimeout time.Duration
}

// Hub serializes every room mutation on one goroutine. Transport adapters
// register clients and dispatch commands; the hub routes events back through
// each client's Events channel.
type Hub struct {
	commands chan *Command
	done     chan struct{}

	clients map[string]*Client
	engine  *Engine
	opts    HubOptions
	log     *zerolog.Logger
}

// NewHub creates a new hub. Call Run to start processing.
func NewHub(opts HubOptions, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	h := &Hub{
		commands: make(chan *Command, 256),
		done:     make(chan struct{}),
		clients:  make(map[string]*Client),
		opts:     opts,
		log:      logger,
	}
	h.engine = NewEngine(h, h, logger)
	return h
}

// Run processes commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	var reap <-chan time.Time
	if h.opts.ReapInterval > 0 && h.opts.RoomIdleTimeout > 0 {
		ticker := time.NewTicker(h.opts.ReapInterval)
		defer ticker.Stop()
		reap = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-h.commands:
			h.handle(cmd)
		case now := <-reap:
			if n := h.engine.Reap(now, h.opts.RoomIdleTimeout); n > 0 {
				h.log.Info().Int("rooms", n).Msg("reaped idle rooms")
			}
		}
	}
}

// RegisterClient makes c reachable for unicasts and broadcasts.
func (h *Hub) RegisterClient(c *Client) {
	h.enqueue(&Command{Kind: commandConnect, client: c})
}

// UnregisterClient marks c gone and runs disconnect handling for its room.
func (h *Hub) UnregisterClient(c *Client) {
	h.enqueue(&Command{Kind: commandDisconnect, client: c})
}

// Dispatch queues a client command. Commands from one caller are handled in
// the order they were dispatched.
func (h *Hub) Dispatch(c *Client, cmd *Command) {
	cmd.client = c
	h.enqueue(cmd)
}

// Rooms returns snapshots of all rooms.
func (h *Hub) Rooms(ctx context.Context) ([]RoomSnapshot, error) {
	var out []RoomSnapshot
	if err := h.do(ctx, func() {
		out = h.engine.Snapshots()
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// Room returns a snapshot of one room.
func (h *Hub) Room(ctx context.Context, code string) (RoomSnapshot, bool, error) {
	var (
		out RoomSnapshot
		ok  bool
	)
	if err := h.do(ctx, func() {
		out, ok = h.engine.Snapshot(code)
	}); err != nil {
		return RoomSnapshot{}, false, err
	}
	return out, ok, nil
}

// Unicast sends ev to one connection if it is still registered.
func (h *Hub) Unicast(connID string, ev *Event) {
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	if !c.deliver(ev) {
		h.log.Warn().
			Str("conn_id", connID).
			Str("event", ev.Kind.String()).
			Msg("dropping event for slow client")
	}
}

// Broadcast sends ev to every live connection bound to a player of the room.
func (h *Hub) Broadcast(roomCode string, ev *Event) {
	room, ok := h.engine.Room(roomCode)
	if !ok {
		return
	}
	for _, p := range room.players {
		h.Unicast(p.ConnectionID, ev)
	}
}

// IsLive reports whether connID is a registered connection.
func (h *Hub) IsLive(connID string) bool {
	_, ok := h.clients[connID]
	return ok
}

// AfterFunc schedules f to run on the hub goroutine after d.
func (h *Hub) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, func() {
		h.enqueue(&Command{Kind: commandFunc, fn: f})
	})
}

func (h *Hub) handle(cmd *Command) {
	if cmd.Kind == commandFunc {
		cmd.fn()
		return
	}

	c := cmd.client
	var err error
	switch cmd.Kind {
	case commandConnect:
		h.clients[c.ID] = c
		h.log.Debug().Str("conn_id", c.ID).Msg("client registered")
		return
	case commandDisconnect:
		delete(h.clients, c.ID)
		h.log.Debug().Str("conn_id", c.ID).Msg("client unregistered")
		if err = h.engine.Disconnect(c.ID); errors.Is(err, ErrNotInRoom) {
			return
		}
	case CommandJoinRoom:
		err = h.engine.Join(c.ID, cmd.Room, cmd.Username)
	case CommandStartGame:
		err = h.engine.StartGame(cmd.Room)
	case CommandSubmitMessages:
		err = h.engine.SubmitMessages(c.ID, cmd.Room, cmd.Messages)
	case CommandRequestRestart:
		err = h.engine.RequestRestart(cmd.Room)
	case CommandRequestRoomUpdate:
		err = h.engine.RequestRoomUpdate(c.ID, cmd.Room)
	default:
		err = ErrBadRequest
	}

	if err != nil {
		h.log.Debug().
			Err(err).
			Str("conn_id", c.ID).
			Str("room", cmd.Room).
			Str("command", cmd.Kind.String()).
			Msg("command ignored")
	}
}

func (h *Hub) enqueue(cmd *Command) bool {
	select {
	case h.commands <- cmd:
		return true
	case <-h.done:
		return false
	}
}

// do runs fn on the hub goroutine and waits for it to finish.
func (h *Hub) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	cmd := &Command{Kind: commandFunc, fn: func() {
		fn()
		close(finished)
	}}

	select {
	case h.commands <- cmd:
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
