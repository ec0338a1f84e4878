package ws

import (
	"bytes"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mmuslimabdulj/goat-canvas/internal/domain"
	"golang.org/x/time/rate"
)

var newline = []byte{'\n'}

// Client represents a single websocket connection joined to one room
type Client struct {
	ID      string
	gateway *Gateway
	conn    *websocket.Conn
	send    chan []byte

	// done is closed exactly once to stop the WritePump
	done      chan struct{}
	closeOnce sync.Once

	// room is set by Gateway.OnJoin before the pumps start
	room *Room

	// Cursor coalescing, see Gateway.relayCursor
	cursorMu      sync.Mutex
	cursorLimiter *rate.Limiter
	pendingCursor *domain.CursorMoved
	cursorTimer   *time.Timer
}

// NewClient creates a Client with a fresh participant id
func NewClient(gw *Gateway, conn *websocket.Conn) *Client {
	return &Client{
		ID:            domain.NewParticipant().ID,
		gateway:       gw,
		conn:          conn,
		send:          make(chan []byte, gw.cfg.SendQueueSize),
		done:          make(chan struct{}),
		cursorLimiter: rate.NewLimiter(gw.cfg.CursorRate, gw.cfg.CursorBurst),
	}
}

// Room returns the room this client joined, or nil before the join
func (c *Client) Room() *Room {
	return c.room
}

// ReadPump pumps messages from the websocket connection to the gateway
func (c *Client) ReadPump() {
	defer func() {
		c.gateway.OnDisconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.gateway.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(domain.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(domain.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[gateway] %s: read: %v", c.ID, err)
			}
			return
		}
		// Clients may batch several envelopes per frame, one per line
		for _, frame := range bytes.Split(message, newline) {
			if len(bytes.TrimSpace(frame)) == 0 {
				continue
			}
			c.gateway.OnEvent(c, frame)
		}
	}
}

// WritePump pumps messages from the send queue to the websocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(domain.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(domain.WriteWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(newline)
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(domain.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(domain.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send offers a message to the client's outbound queue without blocking.
// A client whose queue is full is closed: it will come back with a fresh
// snapshot instead of a gap in its event stream.
func (c *Client) Send(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		log.Printf("[gateway] %s: send queue full, closing slow client", c.ID)
		c.Close()
		return false
	}
}

// Close stops the WritePump. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Closed reports whether Close has been called
func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// stopCursorFlush cancels a pending coalesced cursor relay
func (c *Client) stopCursorFlush() {
	c.cursorMu.Lock()
	defer c.cursorMu.Unlock()

	if c.cursorTimer != nil {
		c.cursorTimer.Stop()
		c.cursorTimer = nil
	}
	c.pendingCursor = nil
}
