package ws

import (
	"reflect"
	"testing"

	"github.com/mmuslimabdulj/goat-canvas/internal/domain"
)

func TestPresence_JoinOrder(t *testing.T) {
	p := NewPresence()
	p.Add("a")
	p.Add("b")
	p.Add("a")
	p.Add("c")

	if got := p.ListActive(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Expected [a b c], got %v", got)
	}
	if p.Len() != 3 {
		t.Errorf("Expected 3 participants, got %d", p.Len())
	}

	if !p.Remove("b") {
		t.Error("Expected b to be removed")
	}
	if p.Remove("b") {
		t.Error("Expected second remove to report false")
	}
	if got := p.ListActive(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("Expected [a c], got %v", got)
	}
}

func TestPresence_Cursor(t *testing.T) {
	p := NewPresence()
	p.Add("a")

	if p.UpdateCursor("ghost", domain.Point{X: 1, Y: 1}) {
		t.Error("Cursor for unknown participant must be dropped")
	}
	if !p.UpdateCursor("a", domain.Point{X: 2, Y: 3}) {
		t.Fatal("Expected cursor update to be accepted")
	}

	parts := p.Participants()
	if len(parts) != 1 || parts[0].Cursor == nil || *parts[0].Cursor != (domain.Point{X: 2, Y: 3}) {
		t.Fatalf("Unexpected participants %+v", parts)
	}

	// Returned cursors are copies
	parts[0].Cursor.X = 99
	if again := p.Participants(); again[0].Cursor.X != 2 {
		t.Error("Participants must not expose internal state")
	}
}
