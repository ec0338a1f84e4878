package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestDecodeClientMessage_ElementKinds(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  Element
	}{
		{
			name:  "text",
			frame: `{"type":"element:add","payload":{"id":"e1","kind":"text","x":0,"y":0,"content":"hi"}}`,
			want:  NewText("e1", 0, 0, "hi"),
		},
		{
			name:  "shape",
			frame: `{"type":"element:add","payload":{"id":"s1","kind":"shape","shapeType":"triangle","x":1,"y":2,"width":3,"height":4,"fill":"#00ff00"}}`,
			want:  NewShape("s1", ShapeTriangle, 1, 2, 3, 4, "#00ff00"),
		},
		{
			name:  "image",
			frame: `{"type":"element:add","payload":{"id":"i1","kind":"image","x":0,"y":0,"width":64,"height":32,"src":"data:image/png;base64,AA=="}}`,
			want:  NewImage("i1", 0, 0, 64, 32, "data:image/png;base64,AA=="),
		},
		{
			// The variant comes from kind, never from which fields are present
			name:  "text with stray src",
			frame: `{"type":"element:add","payload":{"id":"e2","kind":"text","x":0,"y":0,"content":"","src":"ignored"}}`,
			want:  NewText("e2", 0, 0, ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeClientMessage([]byte(tt.frame))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			add, ok := ev.(ElementAdded)
			if !ok {
				t.Fatalf("Expected ElementAdded, got %T", ev)
			}
			if !reflect.DeepEqual(add.Element, tt.want) {
				t.Errorf("got %+v, want %+v", add.Element, tt.want)
			}
		})
	}
}

func TestDecodeClientMessage_Errors(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  error
	}{
		{"not json", `{"type":`, ErrMalformedMessage},
		{"missing payload", `{"type":"element:delete"}`, ErrMalformedMessage},
		{"wrong payload type", `{"type":"element:delete","payload":{"id":"x"}}`, ErrMalformedMessage},
		{"unknown type", `{"type":"element:rotate","payload":"x"}`, ErrUnknownEventType},
		{"unknown kind", `{"type":"element:add","payload":{"id":"x","kind":"video","x":0,"y":0}}`, ErrUnknownElementKind},
		{"add without kind", `{"type":"element:add","payload":{"id":"x","x":0,"y":0,"content":"hi"}}`, ErrUnknownElementKind},
		{"kind-less update with bad geometry", `{"type":"element:update","payload":{"id":"x","x":0,"y":0,"width":-1}}`, ErrInvalidElement},
		{"empty id", `{"type":"element:add","payload":{"id":"","kind":"text","x":0,"y":0,"content":""}}`, ErrInvalidElement},
		{"bad shape type", `{"type":"element:add","payload":{"id":"s","kind":"shape","shapeType":"hexagon","x":0,"y":0}}`, ErrInvalidElement},
		{"image without src", `{"type":"element:add","payload":{"id":"i","kind":"image","x":0,"y":0}}`, ErrInvalidElement},
		{"scale not positive", `{"type":"canvas:update","payload":{"offset":{"x":0,"y":0},"scale":0}}`, ErrInvalidViewport},
		{"server only disconnect", `{"type":"user:disconnect","payload":"p"}`, ErrServerOnlyEvent},
		{"server only init", `{"type":"room:init","payload":{}}`, ErrServerOnlyEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeClientMessage([]byte(tt.frame))
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDecodeClientMessage_CursorAndViewport(t *testing.T) {
	ev, err := DecodeClientMessage([]byte(`{"type":"cursor:update","payload":{"x":12.5,"y":-3}}`))
	if err != nil {
		t.Fatal(err)
	}
	if ev != (CursorMoved{Position: Point{X: 12.5, Y: -3}}) {
		t.Errorf("Unexpected cursor %+v", ev)
	}

	ev, err = DecodeClientMessage([]byte(`{"type":"canvas:update","payload":{"offset":{"x":-100,"y":50},"scale":2}}`))
	if err != nil {
		t.Fatal(err)
	}
	if ev != (ViewportChanged{Viewport: Viewport{Offset: Point{X: -100, Y: 50}, Scale: 2}}) {
		t.Errorf("Unexpected viewport %+v", ev)
	}

	ev, err = DecodeClientMessage([]byte(`{"type":"canvas:update","payload":{"offset":{"x":0,"y":0},"scale":9}}`))
	if err != nil {
		t.Fatal(err)
	}
	if ev != (ViewportChanged{Viewport: Viewport{Scale: MaxScale}}) {
		t.Errorf("Expected scale clamped to %v, got %+v", MaxScale, ev)
	}
}

func TestDecodeClientMessage_UpdateWithoutKind(t *testing.T) {
	ev, err := DecodeClientMessage([]byte(`{"type":"element:update","payload":{"id":"e1","x":10,"y":0,"content":"hi"}}`))
	if err != nil {
		t.Fatal(err)
	}
	upd, ok := ev.(ElementUpdated)
	if !ok {
		t.Fatalf("Expected ElementUpdated, got %T", ev)
	}
	if upd.Element.Kind != "" || upd.Element.X != 10 || upd.Element.Content != "hi" {
		t.Errorf("Unexpected element %+v", upd.Element)
	}
}

func TestEncodeEvent_WireShapes(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{ElementDeleted{ID: "e1"}, `{"type":"element:delete","payload":"e1"}`},
		{ParticipantLeft{ParticipantID: "p1"}, `{"type":"user:disconnect","payload":"p1"}`},
		{CursorMoved{ParticipantID: "p1", Position: Point{X: 1, Y: 2}}, `{"type":"cursor:update","payload":{"id":"p1","position":{"x":1,"y":2}}}`},
		{ViewportChanged{Viewport: DefaultViewport()}, `{"type":"canvas:update","payload":{"offset":{"x":0,"y":0},"scale":1}}`},
		{ElementAdded{Element: NewText("e1", 0, 0, "hi")}, `{"type":"element:add","payload":{"id":"e1","kind":"text","x":0,"y":0,"content":"hi"}}`},
	}

	for _, tt := range tests {
		t.Run(string(tt.ev.Type()), func(t *testing.T) {
			got, err := EncodeEvent(tt.ev)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestEncodeClientEvent(t *testing.T) {
	got, err := EncodeClientEvent(CursorMoved{ParticipantID: "ignored", Position: Point{X: 5, Y: 6}})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"type":"cursor:update","payload":{"x":5,"y":6}}` {
		t.Errorf("Unexpected client cursor frame %s", got)
	}

	if _, err := EncodeClientEvent(ParticipantLeft{ParticipantID: "p"}); !errors.Is(err, ErrServerOnlyEvent) {
		t.Errorf("Expected ErrServerOnlyEvent, got %v", err)
	}

	// A client frame is accepted by the server decoder as-is
	frame, _ := EncodeClientEvent(ElementUpdated{Element: NewImage("i", 1, 1, 2, 2, "blob:1")})
	ev, err := DecodeClientMessage(frame)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ev.(ElementUpdated); !ok {
		t.Errorf("Expected ElementUpdated, got %T", ev)
	}
}

func TestSnapshotWireForm(t *testing.T) {
	data, err := EncodeSnapshot(Snapshot{Canvas: DefaultViewport()})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"elements":[]`) || !strings.Contains(string(data), `"users":[]`) {
		t.Errorf("Empty snapshot should carry empty arrays, got %s", data)
	}

	snap := Snapshot{
		Elements: []Element{NewShape("s", ShapeCircle, 0, 0, 5, 5, "#123456"), NewText("t", 1, 1, "x")},
		Canvas:   Viewport{Offset: Point{X: 3}, Scale: 0.5},
		Users:    []string{"a", "b"},
		Self:     "b",
	}
	data, _ = EncodeSnapshot(snap)

	ev, got, err := DecodeServerMessage(data)
	if err != nil || ev != nil || got == nil {
		t.Fatalf("DecodeServerMessage = %v, %v, %v", ev, got, err)
	}
	if !reflect.DeepEqual(*got, snap) {
		t.Errorf("got %+v, want %+v", *got, snap)
	}
}

func TestDecodeServerMessage_Events(t *testing.T) {
	ev, _, err := DecodeServerMessage([]byte(`{"type":"cursor:update","payload":{"id":"p","position":{"x":1,"y":1}}}`))
	if err != nil || ev != (CursorMoved{ParticipantID: "p", Position: Point{X: 1, Y: 1}}) {
		t.Errorf("cursor: %+v, %v", ev, err)
	}

	ev, _, err = DecodeServerMessage([]byte(`{"type":"user:disconnect","payload":"p"}`))
	if err != nil || ev != (ParticipantLeft{ParticipantID: "p"}) {
		t.Errorf("disconnect: %+v, %v", ev, err)
	}

	if _, _, err := DecodeServerMessage([]byte(`[]`)); !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("Expected ErrMalformedMessage, got %v", err)
	}
}

func TestElementJSONOmitsOtherVariants(t *testing.T) {
	data, _ := json.Marshal(NewImage("i", 0, 0, 1, 1, "x"))
	for _, field := range []string{"content", "shapeType", "fill"} {
		if strings.Contains(string(data), field) {
			t.Errorf("Image JSON should not contain %q: %s", field, data)
		}
	}
}
