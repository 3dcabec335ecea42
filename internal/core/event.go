package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventJoinedRoom tells a connection which logical player it is bound to.
	EventJoinedRoom EventKind = iota
	// EventRoomData carries the membership list and the host.
	EventRoomData
	// EventGameStarted delivers a player's target list.
	EventGameStarted
	// EventStatus is a human-readable progress line.
	EventStatus
	// EventAllSubmitted starts the client-side reveal countdown.
	EventAllSubmitted
	// EventRevealMessages delivers the anonymized messages addressed to a player.
	EventRevealMessages
	// EventRoomDeleted tells clients the room was torn down.
	EventRoomDeleted
)

var eventKindNames = [...]string{
	EventJoinedRoom:     "joined_room",
	EventRoomData:       "room_data",
	EventGameStarted:    "game_started",
	EventStatus:         "status",
	EventAllSubmitted:   "all_submitted",
	EventRevealMessages: "reveal_messages",
	EventRoomDeleted:    "room_deleted",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// Event is sent to clients to describe what happened in the system.
// Events are shared between recipients and must not be mutated once emitted.
type Event struct {
	Kind     EventKind
	Room     string
	Player   PlayerView        // EventJoinedRoom
	Users    []PlayerView      // EventRoomData
	HostID   string            // EventRoomData
	Targets  []PlayerView      // EventGameStarted
	Status   string            // EventStatus
	Messages []RevealedMessage // EventRevealMessages
}
