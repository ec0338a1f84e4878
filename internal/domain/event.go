package domain

// EventType is the wire name of a canvas event
type EventType string

const (
	EventRoomInit       EventType = "room:init"
	EventElementAdd     EventType = "element:add"
	EventElementUpdate  EventType = "element:update"
	EventElementDelete  EventType = "element:delete"
	EventCanvasUpdate   EventType = "canvas:update"
	EventCursorUpdate   EventType = "cursor:update"
	EventUserDisconnect EventType = "user:disconnect"
)

// Event is one unit of synchronization. The set of implementations is closed:
// ElementAdded, ElementUpdated, ElementDeleted, ViewportChanged, CursorMoved
// and ParticipantLeft.
type Event interface {
	Type() EventType
	isEvent()
}

// ElementAdded appends a new element on top of the z-order
type ElementAdded struct {
	Element Element
}

// ElementUpdated replaces an existing element wholesale
type ElementUpdated struct {
	Element Element
}

// ElementDeleted removes an element
type ElementDeleted struct {
	ID string
}

// ViewportChanged overwrites the shared viewport
type ViewportChanged struct {
	Viewport Viewport
}

// CursorMoved reports a participant's pointer. Clients send it without a
// ParticipantID; the server fills it in before relaying.
type CursorMoved struct {
	ParticipantID string
	Position      Point
}

// ParticipantLeft is synthesized by the server when a connection drops
type ParticipantLeft struct {
	ParticipantID string
}

func (ElementAdded) Type() EventType    { return EventElementAdd }
func (ElementUpdated) Type() EventType  { return EventElementUpdate }
func (ElementDeleted) Type() EventType  { return EventElementDelete }
func (ViewportChanged) Type() EventType { return EventCanvasUpdate }
func (CursorMoved) Type() EventType     { return EventCursorUpdate }
func (ParticipantLeft) Type() EventType { return EventUserDisconnect }

func (ElementAdded) isEvent()    {}
func (ElementUpdated) isEvent()  {}
func (ElementDeleted) isEvent()  {}
func (ViewportChanged) isEvent() {}
func (CursorMoved) isEvent()     {}
func (ParticipantLeft) isEvent() {}

// Snapshot is the full room state sent once to a newly joined connection
type Snapshot struct {
	Elements []Element `json:"elements"`
	Canvas   Viewport  `json:"canvas"`
	Users    []string  `json:"users"`
	Self     string    `json:"self,omitempty"`
}
