package proto

import (
	"bytes"
	"encoding/json"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoinRoom          = "joinRoom"
	InboundTypeStartGame         = "startGame"
	InboundTypeSubmitMessages    = "submitMessages"
	InboundTypeRequestRestart    = "requestRestart"
	InboundTypeRequestRoomUpdate = "requestRoomUpdate"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventJoinedRoom     = "joinedRoom"
	EventUpdateRoomData = "updateRoomData"
	EventGameStarted    = "gameStarted"
	EventUpdateStatus   = "updateStatus"
	EventAllSubmitted   = "allSubmitted"
	EventRevealMessages = "revealMessages"
	EventRoomDeleted    = "roomDeleted"
)

// JoinRoomData requests to join (or create) a room under a display name.
type JoinRoomData struct {
	Username string `json:"username"`
	RoomCode string `json:"roomCode"`
}

// RoomRef is the payload of startGame, requestRestart and requestRoomUpdate.
// Clients send either a bare code string or {"roomCode": "..."}.
type RoomRef struct {
	RoomCode string `json:"roomCode"`
}

// UnmarshalJSON accepts both payload shapes.
func (r *RoomRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &r.RoomCode)
	}
	type plain RoomRef
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = RoomRef(p)
	return nil
}

// TargetedMessage is one message addressed by display name.
type TargetedMessage struct {
	TargetName string `json:"targetName"`
	Content    string `json:"content"`
}

// SubmitMessagesData carries a player's messages for the round.
type SubmitMessagesData struct {
	RoomCode string            `json:"roomCode"`
	Messages []TargetedMessage `json:"messages"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// User is the public view of a player.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// JoinedRoom tells a connection which logical player it is bound to.
type JoinedRoom struct {
	RoomCode string `json:"roomCode"`
	ID       string `json:"id"`
	Name     string `json:"name"`
}

// UpdateRoomData carries the membership list and the current host.
type UpdateRoomData struct {
	Users  []User `json:"users"`
	HostID string `json:"hostId"`
}

// GameStarted lists the players a recipient may write to.
type GameStarted struct {
	Targets []User `json:"targets"`
}

// RevealedMessage is an anonymized message. It never names the sender.
type RevealedMessage struct {
	Content string `json:"content"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
