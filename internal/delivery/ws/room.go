package ws

import (
	"hash/fnv"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/mmuslimabdulj/goat-canvas/internal/domain"
)

// shardCount splits the room map so that creating or tearing down one room
// only contends with rooms hashing to the same shard
const shardCount = 32

type roomShard struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// RoomManager manages all active rooms. A room exists while it has
// participants: it is created by the first join and removed by the last leave.
type RoomManager struct {
	shards [shardCount]roomShard
}

// NewRoomManager creates a new room manager
func NewRoomManager() *RoomManager {
	rm := &RoomManager{}
	for i := range rm.shards {
		rm.shards[i].rooms = make(map[string]*Room)
	}
	return rm
}

func (rm *RoomManager) shard(roomID string) *roomShard {
	h := fnv.New32a()
	h.Write([]byte(roomID))
	return &rm.shards[h.Sum32()%shardCount]
}

// GetOrCreate returns the room with the given id, creating it if needed.
// The returned room is pinned against teardown until the caller joins it
// (Join) or gives it back (Release). Two concurrent calls for an unknown id
// get the same room.
func (rm *RoomManager) GetOrCreate(roomID string) *Room {
	s := rm.shard(roomID)
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		room = NewRoom(roomID)
		s.rooms[roomID] = room
		log.Printf("[room] %s: created", roomID)
	}

	room.mu.Lock()
	room.pending++
	room.mu.Unlock()
	return room
}

// Join adds a client to a room, creating the room on first join, and
// returns the snapshot that was queued for the client
func (rm *RoomManager) Join(roomID string, c *Client) (*Room, domain.Snapshot) {
	room := rm.GetOrCreate(roomID)
	return room, room.join(c)
}

// Release gives back a GetOrCreate pin that was not followed by a join
func (rm *RoomManager) Release(room *Room) {
	room.unpin()
	rm.RemoveIfEmpty(room.ID)
}

// RemoveIfEmpty tears the room down if it has no participants and no join in
// flight. All of its elements and viewport are discarded. Reports whether the
// room was removed.
func (rm *RoomManager) RemoveIfEmpty(roomID string) bool {
	s := rm.shard(roomID)
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return false
	}

	room.mu.Lock()
	removable := room.removableLocked()
	room.mu.Unlock()

	if !removable {
		return false
	}
	delete(s.rooms, roomID)
	log.Printf("[room] %s: destroyed", roomID)
	return true
}

// GetRoom returns a room by its id, or nil
func (rm *RoomManager) GetRoom(roomID string) *Room {
	s := rm.shard(roomID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[roomID]
}

// RoomExists checks if a room exists
func (rm *RoomManager) RoomExists(roomID string) bool {
	return rm.GetRoom(roomID) != nil
}

// Publish relays an event to a room's connections except exclude. It
// reports false if the room does not exist.
func (rm *RoomManager) Publish(roomID string, ev domain.Event, exclude *Client) bool {
	room := rm.GetRoom(roomID)
	if room == nil {
		return false
	}
	room.Publish(ev, exclude)
	return true
}

// ListActive returns the participants of a room in join order
func (rm *RoomManager) ListActive(roomID string) []string {
	room := rm.GetRoom(roomID)
	if room == nil {
		return nil
	}
	return room.presence.ListActive()
}

// GetRoomCount returns the number of active rooms
func (rm *RoomManager) GetRoomCount() int {
	n := 0
	for i := range rm.shards {
		s := &rm.shards[i]
		s.mu.Lock()
		n += len(s.rooms)
		s.mu.Unlock()
	}
	return n
}

// ParticipantCount returns the number of participants across all rooms
func (rm *RoomManager) ParticipantCount() int {
	n := 0
	for _, room := range rm.rooms() {
		n += room.presence.Len()
	}
	return n
}

// RoomStats is a point-in-time summary of one room
type RoomStats struct {
	ID           string
	Participants int
	Elements     int
	CreatedAt    time.Time
}

// Stats summarizes every active room, ordered by id
func (rm *RoomManager) Stats() []RoomStats {
	rooms := rm.rooms()
	out := make([]RoomStats, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, RoomStats{
			ID:           room.ID,
			Participants: room.presence.Len(),
			Elements:     room.ElementCount(),
			CreatedAt:    room.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// rooms returns every active room
func (rm *RoomManager) rooms() []*Room {
	var out []*Room
	for i := range rm.shards {
		s := &rm.shards[i]
		s.mu.Lock()
		for _, room := range s.rooms {
			out = append(out, room)
		}
		s.mu.Unlock()
	}
	return out
}
