package core

// OutgoingMessage is one entry of a submission as written by the sender.
type OutgoingMessage struct {
	TargetName string
	Content    string
}

// AddressedMessage is a buffered message bound to a resolved recipient.
// SenderName stays in the buffer and never leaves the core.
type AddressedMessage struct {
	RecipientID string
	SenderName  string
	Content     string
}

// RevealedMessage is the only shape a message takes when delivered.
type RevealedMessage struct {
	Content string
}
