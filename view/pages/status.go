package pages

import "time"

// RoomRow is one line of the status page room table
type RoomRow struct {
	ID           string
	Participants int
	Elements     int
	Since        time.Time
}

// StatusData is everything the status page shows
type StatusData struct {
	Rooms        []RoomRow
	Participants int
	StartedAt    time.Time
}

func openFor(since time.Time) string {
	return time.Since(since).Round(time.Second).String()
}
