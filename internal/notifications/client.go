package notifications

import (
	"sync"
	"time"

	"roommatch/internal/middleware"
	"roommatch/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 16384

	sendBufferSize = 256
)

var dropNotice = []byte(`{"type":"messages_dropped","payload":{"reason":"buffer_full"}}`)

// Client is a middleman between the websocket connection and the registry.
type Client struct {
	registry *Registry

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages. Closed by the registry.
	Send chan []byte

	UserID uint

	// Callback for handling incoming frames
	IncomingHandler func(*Client, []byte)

	// owned by the registry goroutine
	closed bool

	// quit is closed once the read side is gone.
	quit     chan struct{}
	quitOnce sync.Once
}

// NewClient creates a client for userID. conn may be nil in tests.
func NewClient(registry *Registry, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		registry: registry,
		Conn:     conn,
		UserID:   userID,
		Send:     make(chan []byte, sendBufferSize),
		quit:     make(chan struct{}),
	}
}

// Serve runs both pumps and returns only after the write pump has stopped,
// so the caller can release Conn safely.
func (c *Client) Serve() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.WritePump()
	}()
	c.ReadPump()
	<-done
}

func (c *Client) stop() {
	c.quitOnce.Do(func() { close(c.quit) })
}

// ReadPump pumps frames from the websocket connection to IncomingHandler.
// It blocks until the connection fails, then drops the client.
func (c *Client) ReadPump() {
	defer func() {
		c.stop()
		c.registry.Drop(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { _ = c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				middleware.Logger.Warn("websocket read failed", "user_id", c.UserID, "error", err)
			}
			break
		}

		if c.IncomingHandler != nil {
			c.IncomingHandler(c, message)
		}
	}
}

// WritePump pumps messages from the send buffer to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The registry closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-c.quit:
			return

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues a message without blocking. A full buffer drops the message
// and makes a best-effort attempt to tell the client so it can re-fetch.
func (c *Client) TrySend(message []byte) {
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.hubName(), "closed").Inc()
		}
	}()

	select {
	case c.Send <- message:
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.hubName(), "full").Inc()
		middleware.Logger.Warn("websocket buffer full, dropped message", "user_id", c.UserID)

		select {
		case c.Send <- dropNotice:
		default:
		}
	}
}

func (c *Client) hubName() string {
	if c.registry == nil {
		return "realtime"
	}
	return c.registry.Name()
}
