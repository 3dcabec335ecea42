package core

// Error codes for ignored operations. The wire protocol never carries them to
// clients; they are logged and returned to callers so behaviour stays testable.
const (
	ErrCodeRoomNotFound        = "room_not_found"
	ErrCodeInsufficientPlayers = "insufficient_players"
	ErrCodeWrongPhase          = "wrong_phase"
	ErrCodeNotInRoom           = "not_in_room"
	ErrCodeAlreadySubmitted    = "already_submitted"
	ErrCodeBadRequest          = "bad_request"
)

var (
	ErrRoomNotFound        = coreError(ErrCodeRoomNotFound, "room not found")
	ErrInsufficientPlayers = coreError(ErrCodeInsufficientPlayers, "at least two players are required")
	ErrWrongPhase          = coreError(ErrCodeWrongPhase, "operation not allowed in current phase")
	ErrNotInRoom           = coreError(ErrCodeNotInRoom, "connection is not in the room")
	ErrAlreadySubmitted    = coreError(ErrCodeAlreadySubmitted, "messages already submitted this round")
	ErrBadRequest          = coreError(ErrCodeBadRequest, "bad request")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
