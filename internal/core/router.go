package core

// messagesFor strips everything but the content from the buffered messages
// addressed to recipientID. The result is never nil.
func (r *Room) messagesFor(recipientID string) []RevealedMessage {
	out := make([]RevealedMessage, 0)
	for _, m := range r.messages {
		if m.RecipientID == recipientID {
			out = append(out, RevealedMessage{Content: m.Content})
		}
	}
	return out
}

// distribute unicasts every current player their own anonymized messages.
func (e *Engine) distribute(room *Room) {
	for _, p := range room.players {
		e.out.Unicast(p.ConnectionID, &Event{
			Kind:     EventRevealMessages,
			Room:     room.Code,
			Messages: room.messagesFor(p.ID),
		})
	}
	room.delivered = true
	room.reveal = nil

	e.log.Info().
		Str("room", room.Code).
		Int("round", room.round).
		Int("messages", len(room.messages)).
		Int("players", len(room.players)).
		Msg("messages revealed")
}
