package ws

import (
	"sync"
	"time"

	"github.com/mmuslimabdulj/goat-canvas/internal/domain"
)

// Room is the authoritative state of one collaboration session. All
// mutations of a room go through its lock; rooms never share one, so
// traffic in one room cannot stall another.
type Room struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	doc      *domain.Document
	clients  map[string]*Client
	presence *Presence

	// pending counts joins pinned by RoomManager.GetOrCreate that have not
	// reached join yet. A room with pending joins is never torn down.
	pending int
}

// NewRoom creates an empty room with the default viewport
func NewRoom(id string) *Room {
	return &Room{
		ID:        id,
		CreatedAt: time.Now(),
		doc:       domain.NewDocument(),
		clients:   make(map[string]*Client),
		presence:  NewPresence(),
	}
}

// Apply merges a mutation into the room and relays it to everyone but its
// origin, in its resolved form. The relay is queued before Apply returns, under the same lock, so
// every participant observes the room's arrival order. Events from a
// connection that already left are ignored.
func (r *Room) Apply(origin *Client, ev domain.Event) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if origin != nil && r.clients[origin.ID] != origin {
		return false, nil
	}

	ev, err := r.doc.Resolve(ev)
	if err != nil {
		return false, err
	}
	changed, err := r.doc.Apply(ev)
	if err != nil || !changed {
		return false, err
	}
	r.publishLocked(ev, origin)
	return true, nil
}

// Snapshot returns the current room state
func (r *Room) Snapshot() domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// snapshotLocked builds a snapshot. Caller must hold r.mu.
func (r *Room) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		Elements: r.doc.Elements(),
		Canvas:   r.doc.Viewport(),
		Users:    r.presence.ListActive(),
	}
}

// Presence returns the room's presence tracker
func (r *Room) Presence() *Presence {
	return r.presence
}
