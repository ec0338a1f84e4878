package canvas

import (
	"github.com/mmuslimabdulj/goat-canvas/internal/domain"
)

// Store is a client's mirror of one room: the element sequence, the shared
// viewport and who else is around. It merges events with the same
// domain.Document rules the server room uses.
//
// A Store is owned by one goroutine (see Reconciler) and is not safe for
// concurrent use.
type Store struct {
	doc     *domain.Document
	self    string
	users   []string
	cursors map[string]domain.Point
}

// NewStore creates an empty store with the default viewport
func NewStore() *Store {
	return &Store{
		doc:     domain.NewDocument(),
		cursors: make(map[string]domain.Point),
	}
}

// Apply merges one event. Document events follow domain.Document.Apply;
// presence events update the participant list and cursors.
func (s *Store) Apply(ev domain.Event) (bool, error) {
	switch e := ev.(type) {
	case domain.CursorMoved:
		if e.ParticipantID == "" {
			return false, nil
		}
		s.addUser(e.ParticipantID)
		s.cursors[e.ParticipantID] = e.Position
		return true, nil
	case domain.ParticipantLeft:
		return s.removeUser(e.ParticipantID), nil
	}
	return s.doc.Apply(ev)
}

// Reset replaces everything with a room:init snapshot
func (s *Store) Reset(snap domain.Snapshot) {
	s.doc.Reset(snap.Elements, snap.Canvas)
	if snap.Self != "" {
		s.self = snap.Self
	}
	s.users = append([]string(nil), snap.Users...)
	s.cursors = make(map[string]domain.Point)
}

func (s *Store) addUser(id string) {
	for _, u := range s.users {
		if u == id {
			return
		}
	}
	// Participants who joined after our snapshot show up on their first cursor
	s.users = append(s.users, id)
}

func (s *Store) removeUser(id string) bool {
	_, hadCursor := s.cursors[id]
	delete(s.cursors, id)
	for i, u := range s.users {
		if u == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return true
		}
	}
	return hadCursor
}

// Element returns a copy of one element
func (s *Store) Element(id string) (domain.Element, bool) {
	return s.doc.Get(id)
}

// Elements returns the elements in paint order
func (s *Store) Elements() []domain.Element {
	return s.doc.Elements()
}

// Viewport returns the shared viewport
func (s *Store) Viewport() domain.Viewport {
	return s.doc.Viewport()
}

// Self returns this client's participant id, known after the first snapshot
func (s *Store) Self() string {
	return s.self
}

// Users returns the known participants, this client included
func (s *Store) Users() []string {
	return append([]string(nil), s.users...)
}

// Cursor returns the last known cursor of a participant
func (s *Store) Cursor(id string) (domain.Point, bool) {
	p, ok := s.cursors[id]
	return p, ok
}

// Snapshot returns the store contents in room:init form
func (s *Store) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Elements: s.doc.Elements(),
		Canvas:   s.doc.Viewport(),
		Users:    s.Users(),
		Self:     s.self,
	}
}
