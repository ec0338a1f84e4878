package ws

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/mmuslimabdulj/goat-canvas/internal/domain"
)

func TestGateway_AddUpdateDeleteRelay(t *testing.T) {
	gw := newTestGateway()
	a, b := newMockClient(gw), newMockClient(gw)
	joinRoom(t, gw, "r1", a)
	joinRoom(t, gw, "r1", b)

	addFrame := []byte(`{"type":"element:add","payload":{"id":"e1","kind":"text","x":0,"y":0,"content":"hi"}}`)
	gw.OnEvent(a, addFrame)

	raw := <-b.send
	var got, want domain.Envelope
	json.Unmarshal(raw, &got)
	json.Unmarshal(addFrame, &want)
	if got.Type != domain.EventElementAdd {
		t.Fatalf("Expected element:add, got %s", got.Type)
	}
	var gotPayload, wantPayload map[string]any
	json.Unmarshal(got.Payload, &gotPayload)
	json.Unmarshal(want.Payload, &wantPayload)
	if !reflect.DeepEqual(gotPayload, wantPayload) {
		t.Errorf("Relayed payload differs:\n got  %s\n want %s", got.Payload, want.Payload)
	}

	// The update leaves out kind; the element keeps the kind it was created with
	gw.OnEvent(a, []byte(`{"type":"element:update","payload":{"id":"e1","x":10,"y":0,"content":"hi"}}`))
	upd, ok := nextEvent(t, b).(domain.ElementUpdated)
	if !ok || !reflect.DeepEqual(upd.Element, domain.NewText("e1", 10, 0, "hi")) {
		t.Fatalf("Expected text e1 at x=10, got %+v", upd)
	}
	if el := gw.Rooms().GetRoom("r1").Snapshot().Elements[0]; el.Kind != domain.KindText || el.X != 10 {
		t.Fatalf("Expected room to hold text e1 at x=10, got %+v", el)
	}

	gw.OnEvent(a, []byte(`{"type":"element:delete","payload":"e1"}`))
	if ev := nextEvent(t, b); ev != (domain.ElementDeleted{ID: "e1"}) {
		t.Fatalf("Expected delete of e1, got %+v", ev)
	}

	room := gw.Rooms().GetRoom("r1")
	if room.ElementCount() != 0 {
		t.Errorf("Expected e1 gone from the room, %d elements left", room.ElementCount())
	}
	expectQuiet(t, a)
}

func TestGateway_UpdateCannotChangeKind(t *testing.T) {
	gw := newTestGateway()
	a, b := newMockClient(gw), newMockClient(gw)
	joinRoom(t, gw, "r1", a)
	joinRoom(t, gw, "r1", b)

	gw.OnEvent(a, []byte(`{"type":"element:add","payload":{"id":"e1","kind":"text","x":0,"y":0,"content":"hi"}}`))
	nextEvent(t, b)

	gw.OnEvent(a, []byte(`{"type":"element:update","payload":{"id":"e1","kind":"image","x":0,"y":0,"width":5,"height":5,"src":"data:x"}}`))
	expectQuiet(t, b)

	els := gw.Rooms().GetRoom("r1").Snapshot().Elements
	if len(els) != 1 || els[0].Kind != domain.KindText || els[0].Content != "hi" {
		t.Errorf("Expected e1 to stay text, got %+v", els)
	}
}

func TestGateway_LateJoinerSnapshot(t *testing.T) {
	gw := newTestGateway()
	a := newMockClient(gw)
	first := joinRoom(t, gw, "r2", a)

	if len(first.Elements) != 0 {
		t.Errorf("Expected empty room, got %d elements", len(first.Elements))
	}
	if first.Canvas != domain.DefaultViewport() {
		t.Errorf("Expected default viewport, got %+v", first.Canvas)
	}
	if first.Self != a.ID || !reflect.DeepEqual(first.Users, []string{a.ID}) {
		t.Errorf("Expected self %s in users, got self=%s users=%v", a.ID, first.Self, first.Users)
	}

	gw.OnEvent(a, []byte(`{"type":"element:add","payload":{"id":"s1","kind":"shape","shapeType":"circle","x":5,"y":5,"width":20,"height":20,"fill":"#ff0000"}}`))
	gw.OnEvent(a, []byte(`{"type":"element:add","payload":{"id":"t1","kind":"text","x":1,"y":2,"content":"note","fontSize":24}}`))
	gw.OnEvent(a, []byte(`{"type":"canvas:update","payload":{"offset":{"x":-40,"y":12},"scale":1.5}}`))

	room := gw.Rooms().GetRoom("r2")
	current := room.Snapshot()

	b := newMockClient(gw)
	snap := joinRoom(t, gw, "r2", b)

	if !reflect.DeepEqual(snap.Elements, current.Elements) {
		t.Errorf("Snapshot elements differ:\n got  %+v\n want %+v", snap.Elements, current.Elements)
	}
	if snap.Canvas != current.Canvas {
		t.Errorf("Snapshot viewport %+v, want %+v", snap.Canvas, current.Canvas)
	}
	if !reflect.DeepEqual(snap.Users, []string{a.ID, b.ID}) {
		t.Errorf("Expected users in join order, got %v", snap.Users)
	}
	if snap.Elements[0].ID != "s1" || snap.Elements[1].ID != "t1" {
		t.Errorf("Expected z-order [s1 t1], got %+v", snap.Elements)
	}
}

func TestGateway_MalformedMessagesDropped(t *testing.T) {
	gw := newTestGateway()
	a, b := newMockClient(gw), newMockClient(gw)
	joinRoom(t, gw, "r", a)
	joinRoom(t, gw, "r", b)

	bad := []string{
		`not json`,
		`{"type":"element:add"}`,
		`{"type":"element:add","payload":{"id":"x","kind":"sticker","x":0,"y":0}}`,
		`{"type":"element:add","payload":{"id":"","kind":"text","x":0,"y":0,"content":""}}`,
		`{"type":"canvas:update","payload":{"offset":{"x":0,"y":0},"scale":0}}`,
		`{"type":"user:disconnect","payload":"someone"}`,
		`{"type":"room:init","payload":{}}`,
		`{"type":"chat:message","payload":"hello"}`,
	}
	for _, frame := range bad {
		gw.OnEvent(a, []byte(frame))
	}
	expectQuiet(t, b)

	if a.Closed() {
		t.Error("Malformed input must not close the connection")
	}

	// The connection still works afterwards
	gw.OnEvent(a, []byte(`{"type":"element:delete","payload":"nothing"}`))
	gw.OnEvent(a, []byte(`{"type":"element:add","payload":{"id":"ok","kind":"image","x":0,"y":0,"width":10,"height":10,"src":"data:image/png;base64,AA=="}}`))
	if _, ok := nextEvent(t, b).(domain.ElementAdded); !ok {
		t.Error("Expected valid add after malformed input")
	}
}

func TestGateway_MessageBeforeJoinDropped(t *testing.T) {
	gw := newTestGateway()
	c := newMockClient(gw)
	gw.OnEvent(c, []byte(`{"type":"element:delete","payload":"x"}`))
	if gw.Rooms().GetRoomCount() != 0 {
		t.Error("Expected no room to be created")
	}
}

func TestGateway_DisconnectNotifiesRoom(t *testing.T) {
	gw := newTestGateway()
	a, b := newMockClient(gw), newMockClient(gw)
	joinRoom(t, gw, "r", a)
	joinRoom(t, gw, "r", b)

	gw.OnDisconnect(a)
	if ev := nextEvent(t, b); ev != (domain.ParticipantLeft{ParticipantID: a.ID}) {
		t.Fatalf("Expected user:disconnect for %s, got %+v", a.ID, ev)
	}
	if !a.Closed() {
		t.Error("Expected disconnected client to be closed")
	}

	// A second disconnect of the same client is a no-op
	gw.OnDisconnect(a)
	expectQuiet(t, b)

	gw.OnDisconnect(b)
	if gw.Rooms().RoomExists("r") {
		t.Error("Expected room to be destroyed with its last participant")
	}
}

func TestGateway_CursorRelayedWithSender(t *testing.T) {
	gw := newTestGateway()
	a, b := newMockClient(gw), newMockClient(gw)
	joinRoom(t, gw, "r", a)
	joinRoom(t, gw, "r", b)

	gw.OnEvent(a, []byte(`{"type":"cursor:update","payload":{"x":3,"y":4}}`))
	want := domain.CursorMoved{ParticipantID: a.ID, Position: domain.Point{X: 3, Y: 4}}
	if ev := nextEvent(t, b); ev != want {
		t.Fatalf("Expected %+v, got %+v", want, ev)
	}
	expectQuiet(t, a)

	parts := gw.Rooms().GetRoom("r").Presence().Participants()
	if parts[0].Cursor == nil || *parts[0].Cursor != want.Position {
		t.Errorf("Expected presence to record the cursor, got %+v", parts[0])
	}
}

func TestGateway_CursorCoalescing(t *testing.T) {
	opts := DefaultOptions()
	opts.CursorRate = 20
	opts.CursorBurst = 1
	gw := NewGateway(NewRoomManager(), opts)
	a, b := newMockClient(gw), newMockClient(gw)
	joinRoom(t, gw, "r", a)
	joinRoom(t, gw, "r", b)

	for i := 1; i <= 10; i++ {
		frame, _ := domain.EncodeClientEvent(domain.CursorMoved{Position: domain.Point{X: float64(i), Y: 0}})
		gw.OnEvent(a, frame)
	}

	// The burst lets the first position through immediately
	first, ok := nextEvent(t, b).(domain.CursorMoved)
	if !ok || first.Position.X != 1 {
		t.Fatalf("Expected first cursor at x=1, got %+v", first)
	}

	// Everything after it collapses into the latest position
	last, ok := nextEvent(t, b).(domain.CursorMoved)
	if !ok || last.Position.X != 10 {
		t.Fatalf("Expected coalesced cursor at x=10, got %+v", last)
	}

	time.Sleep(100 * time.Millisecond)
	expectQuiet(t, b)
}

func TestGateway_CursorFlushCancelledOnDisconnect(t *testing.T) {
	opts := DefaultOptions()
	opts.CursorRate = 5
	opts.CursorBurst = 1
	gw := NewGateway(NewRoomManager(), opts)
	a, b := newMockClient(gw), newMockClient(gw)
	joinRoom(t, gw, "r", a)
	joinRoom(t, gw, "r", b)

	gw.OnEvent(a, []byte(`{"type":"cursor:update","payload":{"x":1,"y":1}}`))
	gw.OnEvent(a, []byte(`{"type":"cursor:update","payload":{"x":2,"y":2}}`))
	nextEvent(t, b)

	gw.OnDisconnect(a)
	if _, ok := nextEvent(t, b).(domain.ParticipantLeft); !ok {
		t.Fatal("Expected user:disconnect")
	}

	time.Sleep(300 * time.Millisecond)
	expectQuiet(t, b)
}
