package domain

import "github.com/google/uuid"

// Participant is one live connection's identity within a room. It only lives
// as long as the connection.
type Participant struct {
	ID     string `json:"id"`
	Cursor *Point `json:"cursor,omitempty"` // nil until the first cursor update
}

// NewParticipant creates a Participant with a generated ID
func NewParticipant() Participant {
	return Participant{ID: uuid.NewString()}
}
