package ws

import (
	"log"

	"github.com/mmuslimabdulj/goat-canvas/internal/domain"
)

// Publish relays an event to every connection in the room except exclude.
// Delivery is best-effort and at-most-once: a send never blocks, and nothing
// is buffered for participants who are not connected.
func (r *Room) Publish(ev domain.Event, exclude *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishLocked(ev, exclude)
}

// publishLocked encodes ev once and offers it to each client's queue.
// NOTE: Caller must hold r.mu
func (r *Room) publishLocked(ev domain.Event, exclude *Client) {
	if len(r.clients) == 0 || (len(r.clients) == 1 && exclude != nil && r.clients[exclude.ID] == exclude) {
		return
	}

	data, err := domain.EncodeEvent(ev)
	if err != nil {
		log.Printf("[room] %s: encode %s: %v", r.ID, ev.Type(), err)
		return
	}

	for _, c := range r.clients {
		if c == exclude {
			continue
		}
		c.Send(data)
	}
}

// relayCursor publishes a cursor position if its participant is still in the room
func (r *Room) relayCursor(origin *Client, ev domain.CursorMoved) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clients[origin.ID] != origin {
		return false
	}
	r.publishLocked(ev, origin)
	return true
}
