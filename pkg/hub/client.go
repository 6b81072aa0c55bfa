package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// Client is one websocket connection's view of the hub. Identity fields are
// zero for connections that presented no (or an invalid) token; those may
// still hold the socket open but every chat action is refused.
type Client struct {
	Conn *websocket.Conn
	Send chan []byte

	UserID uint
	Admin  bool
	Authed bool

	rooms map[uint]bool

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, userID uint, admin, authed bool) *Client {
	return &Client{
		Conn:   conn,
		Send:   make(chan []byte, 64),
		UserID: userID,
		Admin:  admin,
		Authed: authed,
		rooms:  make(map[uint]bool),
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.Send)
	})
}

// WritePump drains the send queue onto the socket and keeps the connection
// alive with pings. Run in its own goroutine; returns when the hub closes
// the queue or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendError queues a named error event for this connection only; errors are
// never broadcast to the room. A no-op once the hub has closed the queue.
func (c *Client) SendError(msg string) {
	b, err := json.Marshal(Envelope{Event: EventError, Error: msg})
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- b:
	default:
	}
}
