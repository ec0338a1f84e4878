package http

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mmuslimabdulj/goat-canvas/internal/config"
	"github.com/mmuslimabdulj/goat-canvas/internal/delivery/ws"
	"github.com/mmuslimabdulj/goat-canvas/view/pages"
)

// roomIDPattern is the accepted shape of a room id taken from the URL
var roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)

// isOriginAllowed checks if the origin is in the allowed list
func isOriginAllowed(allowedOrigins []string, origin string) bool {
	// Empty origin is allowed (same-origin requests and non-browser clients)
	if origin == "" {
		return true
	}

	for _, allowed := range allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

type Handler struct {
	gateway   *ws.Gateway
	upgrader  websocket.Upgrader
	startedAt time.Time
}

func NewHandler(gateway *ws.Gateway, cfg *config.Config) *Handler {
	origins := cfg.AllowedOrigins
	return &Handler{
		gateway: gateway,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return isOriginAllowed(origins, r.Header.Get("Origin"))
			},
		},
		startedAt: time.Now(),
	}
}

// roomIDFromRequest reads the room id from ?roomId= or ?room=
func roomIDFromRequest(r *http.Request) string {
	q := r.URL.Query()
	if id := q.Get("roomId"); id != "" {
		return id
	}
	return q.Get("room")
}

// HandleIndex serves the status page
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	rooms := h.gateway.Rooms()
	data := pages.StatusData{StartedAt: h.startedAt}
	for _, s := range rooms.Stats() {
		data.Rooms = append(data.Rooms, pages.RoomRow{
			ID:           s.ID,
			Participants: s.Participants,
			Elements:     s.Elements,
			Since:        s.CreatedAt,
		})
		data.Participants += s.Participants
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	pages.Status(data).Render(r.Context(), w)
}

// HandleHealth reports liveness and load
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rooms := h.gateway.Rooms()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(map[string]any{
		"status":       "ok",
		"rooms":        rooms.GetRoomCount(),
		"participants": rooms.ParticipantCount(),
	})
}

// HandleWebSocket upgrades HTTP to WebSocket and joins the requested room,
// creating it if this is the first participant
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFromRequest(r)
	if roomID == "" {
		http.Error(w, "Room id required", http.StatusBadRequest)
		return
	}
	if !roomIDPattern.MatchString(roomID) {
		http.Error(w, "Invalid room id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.gateway, conn)

	// The snapshot is queued before the pumps start, so it is the first frame out
	h.gateway.OnJoin(roomID, client)

	// Start read/write pumps in goroutines
	go client.WritePump()
	go client.ReadPump()
}
