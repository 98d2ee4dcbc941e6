package realtime

import (
	"sync"

	"github.com/google/uuid"

	"teamnotes/internal/domain/models/notes"
)

// Client is one realtime connection as seen by the hub. The transport drains
// Messages() and tears the connection down when Done() closes.
type Client struct {
	id      string
	actorID string
	role    notes.Role
	send    chan Message

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient creates a client with an outbound queue of size buffer
func NewClient(actorID string, role notes.Role, buffer int) *Client {
	if buffer <= 0 {
		buffer = 1
	}
	return &Client{
		id:      uuid.NewString(),
		actorID: actorID,
		role:    role,
		send:    make(chan Message, buffer),
		done:    make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) ActorID() string { return c.actorID }

func (c *Client) Role() notes.Role { return c.role }

// Messages is the outbound queue
func (c *Client) Messages() <-chan Message { return c.send }

// Done closes when the hub drops the client or Close is called
func (c *Client) Done() <-chan struct{} { return c.done }

// Close marks the client closed. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// enqueue never blocks; false means the queue is full
func (c *Client) enqueue(msg Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}
