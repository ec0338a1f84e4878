package ws

import (
	"sync"

	"github.com/mmuslimabdulj/goat-canvas/internal/domain"
)

// Presence tracks who is connected to one room and where their cursor was
// last seen. It has its own lock so cursor traffic never waits on element
// mutations. Nothing here is persisted.
type Presence struct {
	mu      sync.RWMutex
	order   []string // join order
	cursors map[string]*domain.Point
}

// NewPresence creates an empty tracker
func NewPresence() *Presence {
	return &Presence{
		cursors: make(map[string]*domain.Point),
	}
}

// Add registers a participant. Adding a known id is a no-op.
func (p *Presence) Add(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.cursors[id]; ok {
		return
	}
	p.cursors[id] = nil
	p.order = append(p.order, id)
}

// Remove forgets a participant and reports whether it was present
func (p *Presence) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.cursors[id]; !ok {
		return false
	}
	delete(p.cursors, id)
	for i, pid := range p.order {
		if pid == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return true
}

// UpdateCursor records the last received cursor position. Updates for
// unknown participants are dropped.
func (p *Presence) UpdateCursor(id string, pos domain.Point) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.cursors[id]; !ok {
		return false
	}
	p.cursors[id] = &pos
	return true
}

// ListActive returns participant ids in join order
func (p *Presence) ListActive() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Participants returns every participant with its last cursor
func (p *Presence) Participants() []domain.Participant {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]domain.Participant, 0, len(p.order))
	for _, id := range p.order {
		part := domain.Participant{ID: id}
		if c := p.cursors[id]; c != nil {
			pos := *c
			part.Cursor = &pos
		}
		out = append(out, part)
	}
	return out
}

// Len returns the number of active participants
func (p *Presence) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}
