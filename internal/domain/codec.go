package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope is the frame every canvas message travels in
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// CursorRelayPayload is how the server relays a cursor to other participants
type CursorRelayPayload struct {
	ID       string `json:"id"`
	Position Point  `json:"position"`
}

// EncodeEvent renders an event in its server-to-client form
func EncodeEvent(ev Event) ([]byte, error) {
	var payload any
	switch e := ev.(type) {
	case ElementAdded:
		payload = e.Element
	case ElementUpdated:
		payload = e.Element
	case ElementDeleted:
		payload = e.ID
	case ViewportChanged:
		payload = e.Viewport
	case CursorMoved:
		payload = CursorRelayPayload{ID: e.ParticipantID, Position: e.Position}
	case ParticipantLeft:
		payload = e.ParticipantID
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEventType, ev)
	}
	return encode(ev.Type(), payload)
}

// EncodeClientEvent renders an event in its client-to-server form
func EncodeClientEvent(ev Event) ([]byte, error) {
	switch e := ev.(type) {
	case CursorMoved:
		return encode(EventCursorUpdate, e.Position)
	case ParticipantLeft:
		return nil, fmt.Errorf("%w: %s", ErrServerOnlyEvent, ev.Type())
	}
	return EncodeEvent(ev)
}

// EncodeSnapshot renders the room:init message
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	if s.Elements == nil {
		s.Elements = []Element{}
	}
	if s.Users == nil {
		s.Users = []string{}
	}
	return encode(EventRoomInit, s)
}

func encode(t EventType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return json.Marshal(Envelope{Type: t, Payload: raw})
}

// DecodeClientMessage parses and validates a frame sent by a client. A
// CursorMoved comes back without a ParticipantID.
func DecodeClientMessage(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch env.Type {
	case EventCursorUpdate:
		var p Point
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		if !finite(p.X, p.Y) {
			return nil, fmt.Errorf("%w: non-finite cursor", ErrMalformedMessage)
		}
		return CursorMoved{Position: p}, nil
	case EventUserDisconnect, EventRoomInit:
		return nil, fmt.Errorf("%w: %s", ErrServerOnlyEvent, env.Type)
	}
	return decodeMutation(env)
}

// DecodeServerMessage parses a frame sent by the server. For room:init the
// snapshot is returned and the event is nil.
func DecodeServerMessage(data []byte) (Event, *Snapshot, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch env.Type {
	case EventRoomInit:
		var s Snapshot
		if err := decodePayload(env, &s); err != nil {
			return nil, nil, err
		}
		return nil, &s, nil
	case EventCursorUpdate:
		var p CursorRelayPayload
		if err := decodePayload(env, &p); err != nil {
			return nil, nil, err
		}
		return CursorMoved{ParticipantID: p.ID, Position: p.Position}, nil, nil
	case EventUserDisconnect:
		var id string
		if err := decodePayload(env, &id); err != nil {
			return nil, nil, err
		}
		return ParticipantLeft{ParticipantID: id}, nil, nil
	}

	ev, err := decodeMutation(env)
	return ev, nil, err
}

// decodeMutation handles the document events, which share a form in both directions
func decodeMutation(env Envelope) (Event, error) {
	switch env.Type {
	case EventElementAdd, EventElementUpdate:
		var el Element
		if err := decodePayload(env, &el); err != nil {
			return nil, err
		}
		if env.Type == EventElementUpdate && el.Kind == "" {
			// The kind is resolved against the stored element by Document
			if err := el.validateFrame(); err != nil {
				return nil, err
			}
			return ElementUpdated{Element: el}, nil
		}
		if err := el.Validate(); err != nil {
			return nil, err
		}
		if env.Type == EventElementAdd {
			return ElementAdded{Element: el}, nil
		}
		return ElementUpdated{Element: el}, nil

	case EventElementDelete:
		var id string
		if err := decodePayload(env, &id); err != nil {
			return nil, err
		}
		if err := ValidateElementID(id); err != nil {
			return nil, err
		}
		return ElementDeleted{ID: id}, nil

	case EventCanvasUpdate:
		var v Viewport
		if err := decodePayload(env, &v); err != nil {
			return nil, err
		}
		if err := v.Validate(); err != nil {
			return nil, err
		}
		return ViewportChanged{Viewport: v.Clamp()}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
}

func decodePayload(env Envelope, v any) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("%w: %s without payload", ErrMalformedMessage, env.Type)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		if errors.Is(err, ErrUnknownElementKind) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", ErrMalformedMessage, env.Type, err)
	}
	return nil
}
