package domain

import "errors"

// Errors returned while decoding, validating and applying canvas events.
// Callers classify them with errors.Is; none of them is fatal to a connection.
var (
	ErrMalformedMessage   = errors.New("malformed message")
	ErrUnknownEventType   = errors.New("unknown event type")
	ErrServerOnlyEvent    = errors.New("event type is server-to-client only")
	ErrUnknownElementKind = errors.New("unknown element kind")
	ErrInvalidElement     = errors.New("invalid element")
	ErrInvalidViewport    = errors.New("invalid viewport")
	ErrDuplicateElement   = errors.New("duplicate element id")
)
