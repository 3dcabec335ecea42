package core

// Phase is the lifecycle stage of a round.
type Phase string

const (
	// PhaseWaiting accepts joins; no round is active.
	PhaseWaiting Phase = "waiting"
	// PhaseWriting means targets were handed out and players are composing.
	PhaseWriting Phase = "writing"
	// PhaseRevealing means submissions are closed and delivery is scheduled or done.
	PhaseRevealing Phase = "revealing"
)

func (p Phase) String() string {
	return string(p)
}

// retainsPlayers reports whether disconnected players keep their slot.
func (p Phase) retainsPlayers() bool {
	return p == PhaseWriting || p == PhaseRevealing
}
