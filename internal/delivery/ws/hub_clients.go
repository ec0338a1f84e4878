package ws

import (
	"log"

	"github.com/mmuslimabdulj/goat-canvas/internal/domain"
)

// join adds a client, releases the pin taken by GetOrCreate and queues the
// room:init snapshot. The snapshot is queued under the room lock so no relay
// can reach the client ahead of it.
func (r *Room) join(c *Client) domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending > 0 {
		r.pending--
	}
	r.clients[c.ID] = c
	r.presence.Add(c.ID)
	c.room = r

	snap := r.snapshotLocked()
	snap.Self = c.ID

	data, err := domain.EncodeSnapshot(snap)
	if err != nil {
		log.Printf("[room] %s: encode snapshot: %v", r.ID, err)
		return snap
	}
	c.Send(data)
	return snap
}

// leave removes a client and tells the rest of the room. It reports false
// if the client was not a member (already left, or never joined).
func (r *Room) leave(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clients[c.ID] != c {
		return false
	}
	delete(r.clients, c.ID)
	r.presence.Remove(c.ID)
	r.publishLocked(domain.ParticipantLeft{ParticipantID: c.ID}, nil)
	return true
}

// unpin releases a GetOrCreate pin whose join never happened
func (r *Room) unpin() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending > 0 {
		r.pending--
	}
}

// removableLocked reports whether the room may be torn down.
// NOTE: Caller must hold r.mu
func (r *Room) removableLocked() bool {
	return len(r.clients) == 0 && r.pending == 0
}

// ClientCount returns the number of connected clients
func (r *Room) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// ElementCount returns the number of live elements
func (r *Room) ElementCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.Len()
}
