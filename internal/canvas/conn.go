package canvas

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mmuslimabdulj/goat-canvas/internal/domain"
)

var newline = []byte{'\n'}

// Conn is a client connection to one room. It implements Sender.
type Conn struct {
	ws     *websocket.Conn
	roomID string

	writeMu sync.Mutex
}

// RoomURL builds the websocket URL of a room. server may be a bare
// host:port or an http(s)/ws(s) URL.
func RoomURL(server, roomID string) (string, error) {
	if !strings.Contains(server, "://") {
		server = "ws://" + server
	}
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server address: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"roomId": {roomID}}.Encode()
	return u.String(), nil
}

// Dial connects to a room on server
func Dial(ctx context.Context, server, roomID string) (*Conn, error) {
	target, err := RoomURL(server, roomID)
	if err != nil {
		return nil, err
	}
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", target, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	ws.SetReadLimit(domain.MaxMessageSize)
	return &Conn{ws: ws, roomID: roomID}, nil
}

// RoomID returns the room this connection joined
func (c *Conn) RoomID() string {
	return c.roomID
}

// Send writes one event to the server. Safe for concurrent use.
func (c *Conn) Send(ev domain.Event) error {
	data, err := domain.EncodeClientEvent(ev)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(domain.WriteWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Listen reads frames until the connection ends and hands every message to
// rec: room:init through EnqueueSnapshot, everything else through Enqueue.
// Undecodable messages are logged and skipped. It returns nil when the
// server closed the connection normally or ctx ended.
func (c *Conn) Listen(ctx context.Context, rec *Reconciler) error {
	stop := context.AfterFunc(ctx, func() { c.ws.Close() })
	defer stop()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		for _, frame := range bytes.Split(message, newline) {
			if len(bytes.TrimSpace(frame)) == 0 {
				continue
			}
			ev, snap, err := domain.DecodeServerMessage(frame)
			if err != nil {
				log.Printf("[canvas] %s: dropped message: %v", c.roomID, err)
				continue
			}
			var ok bool
			if snap != nil {
				ok = rec.EnqueueSnapshot(ctx, *snap)
			} else {
				ok = rec.Enqueue(ctx, ev)
			}
			if !ok {
				return nil
			}
		}
	}
}

// Close says goodbye to the server and closes the socket
func (c *Conn) Close() error {
	c.writeMu.Lock()
	c.ws.SetWriteDeadline(time.Now().Add(domain.WriteWait))
	c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.ws.Close()
}
