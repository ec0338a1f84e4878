package ws

import (
	"errors"
	"log"
	"time"

	"github.com/mmuslimabdulj/goat-canvas/internal/domain"
	"golang.org/x/time/rate"
)

// Options tunes the gateway's per-connection resources
type Options struct {
	SendQueueSize  int
	MaxMessageSize int64
	CursorRate     rate.Limit // cursor relays per second per participant
	CursorBurst    int
	Debug          bool // log every accepted event
}

// DefaultOptions returns the gateway defaults
func DefaultOptions() Options {
	return Options{
		SendQueueSize:  domain.SendQueueSize,
		MaxMessageSize: domain.MaxMessageSize,
		CursorRate:     domain.DefaultCursorRate,
		CursorBurst:    domain.DefaultCursorBurst,
	}
}

// Gateway owns the lifecycle of every connection: join, inbound events and
// disconnect. Nothing a client sends can take the gateway or another room down.
type Gateway struct {
	rooms *RoomManager
	cfg   Options
}

// NewGateway creates a gateway over a room registry
func NewGateway(rooms *RoomManager, opts Options) *Gateway {
	if opts.SendQueueSize <= 0 {
		opts.SendQueueSize = domain.SendQueueSize
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = domain.MaxMessageSize
	}
	if opts.CursorBurst < 1 {
		opts.CursorBurst = 1
	}
	return &Gateway{rooms: rooms, cfg: opts}
}

// Rooms returns the registry behind the gateway
func (g *Gateway) Rooms() *RoomManager {
	return g.rooms
}

// OnJoin puts the client in the room (creating the room on first join) and
// queues the room:init snapshot on the client's connection
func (g *Gateway) OnJoin(roomID string, c *Client) domain.Snapshot {
	_, snap := g.rooms.Join(roomID, c)
	if g.cfg.Debug {
		log.Printf("[gateway] %s joined %s (%d elements, %d users)", c.ID, roomID, len(snap.Elements), len(snap.Users))
	}
	return snap
}

// OnEvent decodes one client frame and applies it. Malformed, unknown and
// invalid messages are logged and dropped; the connection stays open.
func (g *Gateway) OnEvent(c *Client, raw []byte) {
	room := c.room
	if room == nil {
		log.Printf("[gateway] %s: message before join dropped", c.ID)
		return
	}

	ev, err := domain.DecodeClientMessage(raw)
	if err != nil {
		log.Printf("[gateway] %s: dropped message: %v", c.ID, err)
		return
	}

	switch e := ev.(type) {
	case domain.CursorMoved:
		e.ParticipantID = c.ID
		if room.presence.UpdateCursor(c.ID, e.Position) {
			g.relayCursor(c, e)
		}
	default:
		changed, err := room.Apply(c, ev)
		switch {
		case errors.Is(err, domain.ErrDuplicateElement):
			log.Printf("[gateway] %s: rejected in %s: %v", c.ID, room.ID, err)
		case err != nil:
			log.Printf("[gateway] %s: apply %s: %v", c.ID, ev.Type(), err)
		case changed && g.cfg.Debug:
			log.Printf("[gateway] %s: %s in %s", c.ID, ev.Type(), room.ID)
		}
	}
}

// OnDisconnect releases the client's slot, tells the rest of the room and
// tears the room down if it is now empty. Safe to call more than once.
func (g *Gateway) OnDisconnect(c *Client) {
	c.Close()
	c.stopCursorFlush()

	room := c.room
	if room == nil {
		return
	}
	if room.leave(c) {
		if g.cfg.Debug {
			log.Printf("[gateway] %s left %s", c.ID, room.ID)
		}
		g.rooms.RemoveIfEmpty(room.ID)
	}
}

// relayCursor fans a cursor out under the participant's token bucket. Over
// budget, only the latest position is kept and flushed when the next token
// is due; positions in between are dropped.
func (g *Gateway) relayCursor(c *Client, ev domain.CursorMoved) {
	c.cursorMu.Lock()
	defer c.cursorMu.Unlock()

	if c.cursorTimer != nil {
		c.pendingCursor = &ev
		return
	}
	if c.cursorLimiter.Allow() {
		c.room.relayCursor(c, ev)
		return
	}

	res := c.cursorLimiter.Reserve()
	if !res.OK() {
		return
	}
	c.pendingCursor = &ev
	c.cursorTimer = time.AfterFunc(res.Delay(), func() {
		g.flushCursor(c)
	})
}

func (g *Gateway) flushCursor(c *Client) {
	c.cursorMu.Lock()
	defer c.cursorMu.Unlock()

	ev := c.pendingCursor
	c.pendingCursor = nil
	c.cursorTimer = nil
	if ev != nil {
		c.room.relayCursor(c, *ev)
	}
}
