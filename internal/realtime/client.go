package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

const sendBuffer = 256

// Envelope is the frame format on the socket and on the relay channel.
type Envelope struct {
	Type       string          `json:"type"`
	RoomID     string          `json:"roomId,omitempty"`
	From       string          `json:"from,omitempty"`
	Recipients []string        `json:"recipients,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// wsConn is the part of *websocket.Conn a client uses.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	Close() error
}

// Client is one socket. Only writePump writes to the connection.
type Client struct {
	conn   wsConn
	userID string
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func newClient(conn wsConn, userID string) *Client {
	return &Client{
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *Client) UserID() string { return c.userID }

// Enqueue queues b without blocking. It reports false when the buffer is
// full or the client is closed.
func (c *Client) Enqueue(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// enqueueWait queues b, waiting for buffer space until ctx ends or the
// client closes.
func (c *Client) enqueueWait(ctx context.Context, b []byte) bool {
	select {
	case c.send <- b:
		return true
	case <-c.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// writePump owns the connection's write side. onPing, when set, runs after
// every successful ping.
func (c *Client) writePump(pingInterval, writeDeadline time.Duration, onPing func()) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
			if onPing != nil {
				onPing()
			}
		}
	}
}

// readPump hands every well-formed inbound frame to handle until the
// connection fails.
func (c *Client) readPump(limit int64, handle func(Envelope)) {
	c.conn.SetReadLimit(limit)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		handle(env)
	}
}
