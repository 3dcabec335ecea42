package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom joins or rejoins a room under a display name.
	CommandJoinRoom CommandKind = iota
	// CommandStartGame starts a round.
	CommandStartGame
	// CommandSubmitMessages submits the sender's addressed messages.
	CommandSubmitMessages
	// CommandRequestRestart tears the room down.
	CommandRequestRestart
	// CommandRequestRoomUpdate asks for the current membership.
	CommandRequestRoomUpdate

	commandConnect
	commandDisconnect
	commandFunc
)

var commandKindNames = [...]string{
	CommandJoinRoom:          "join_room",
	CommandStartGame:         "start_game",
	CommandSubmitMessages:    "submit_messages",
	CommandRequestRestart:    "request_restart",
	CommandRequestRoomUpdate: "request_room_update",
	commandConnect:           "connect",
	commandDisconnect:        "disconnect",
	commandFunc:              "func",
}

func (k CommandKind) String() string {
	if int(k) < len(commandKindNames) {
		return commandKindNames[k]
	}
	return "unknown"
}

// Command represents an action requested by a client.
type Command struct {
	Kind     CommandKind
	Room     string
	Username string            // CommandJoinRoom
	Messages []OutgoingMessage // CommandSubmitMessages

	client *Client
	fn     func()
}
