package core

const clientEventBuffer = 64

// Client is one transport connection as seen by the core layer.
type Client struct {
	ID     string
	Events chan *Event
}

// NewClient constructs a client with an initialized event channel.
func NewClient(id string) *Client {
	return &Client{
		ID:     id,
		Events: make(chan *Event, clientEventBuffer),
	}
}

// deliver enqueues ev without blocking. It reports false when the client is
// too slow and the event was dropped.
func (c *Client) deliver(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
