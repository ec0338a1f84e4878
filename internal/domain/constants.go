package domain

import "time"

// ==== WebSocket Constants ====

// MaxMessageSize is the default maximum WebSocket message size in bytes.
// Image elements carry their payload inline, so this is far above a chat message.
const MaxMessageSize = 1 << 20

// SendQueueSize is the default per-connection outbound queue length
const SendQueueSize = 256

// ==== Element Constants ====

const (
	// MaxElementIDLength bounds element ids accepted from clients
	MaxElementIDLength = 128

	// MaxTextLength bounds the content of a text element (in bytes)
	MaxTextLength = 16 * 1024

	// MaxPayloadRefLength bounds an image payload reference (data URLs included)
	MaxPayloadRefLength = 900 * 1024

	// DefaultFontSize, DefaultFontFamily and DefaultTextColor are applied to text elements that omit them
	DefaultFontSize   = 16
	DefaultFontFamily = "Arial"
	DefaultTextColor  = "#000000"
)

// ==== Viewport Constants ====

const (
	// MinScale and MaxScale are the zoom bounds used by canvas clients
	MinScale = 0.1
	MaxScale = 5.0

	// DefaultScale is the scale of a freshly created room
	DefaultScale = 1.0
)

// ==== Rate Limit Constants ====

const (
	// DefaultRateLimitWS is the default rate limit for new WebSocket connections per IP (req/sec)
	DefaultRateLimitWS = 5

	// DefaultRateLimitWSBurst is the burst allowed on top of DefaultRateLimitWS
	DefaultRateLimitWSBurst = 10

	// DefaultRateLimitHTTP is the default rate limit for status and health requests per IP (req/sec)
	DefaultRateLimitHTTP = 20

	// DefaultRateLimitHTTPBurst is the burst allowed on top of DefaultRateLimitHTTP
	DefaultRateLimitHTTPBurst = 40

	// DefaultCursorRate is how many cursor updates per second a participant may fan out
	DefaultCursorRate = 30

	// DefaultCursorBurst is the cursor token bucket size
	DefaultCursorBurst = 5
)

// ==== Timing Constants ====

const (
	// WriteWait is the time allowed to write a frame to the peer
	WriteWait = 10 * time.Second

	// PongWait is the time allowed to read the next pong message from the peer
	PongWait = 60 * time.Second

	// PingPeriod must be less than PongWait
	PingPeriod = (PongWait * 9) / 10
)
