package main

import (
	"net/http"

	httpHandler "github.com/mmuslimabdulj/goat-canvas/internal/delivery/http"
	"github.com/mmuslimabdulj/goat-canvas/internal/middleware"
)

// routes mounts the status pages and the websocket endpoint, each behind its
// own per-IP limiter, with security headers on every response
func routes(h *httpHandler.Handler, wsLimiter, pageLimiter *middleware.IPRateLimiter) http.Handler {
	pages := http.NewServeMux()
	pages.HandleFunc("/", h.HandleIndex)
	pages.HandleFunc("/healthz", h.HandleHealth)

	mux := http.NewServeMux()
	mux.Handle("/", middleware.RateLimitMiddleware(pageLimiter)(pages))

	// WebSocket route with rate limiting
	mux.HandleFunc("/ws", middleware.RateLimitFunc(wsLimiter, h.HandleWebSocket))

	return middleware.SecurityHeaders(mux)
}
