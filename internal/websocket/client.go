package websocket

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// sendBuffer is the number of frames queued per connection before new
// frames are dropped.
const sendBuffer = 64

// Client is one websocket connection of an authenticated user. A user may
// hold several, one per tab or device.
type Client struct {
	UserID string
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(userID string, conn *websocket.Conn) *Client {
	return &Client{UserID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
}

// enqueue queues frame without blocking. It reports false when the frame
// was dropped because the client is closed or too slow.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		slog.Warn("Client send channel full, dropping message", "user_id", c.UserID)
		return false
	}
}

// close stops the client's write loop. Safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
