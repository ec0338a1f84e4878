package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmuslimabdulj/goat-canvas/internal/config"
	httpHandler "github.com/mmuslimabdulj/goat-canvas/internal/delivery/http"
	"github.com/mmuslimabdulj/goat-canvas/internal/delivery/ws"
	"github.com/mmuslimabdulj/goat-canvas/internal/middleware"
)

func newTestRoutes(t *testing.T, pageBurst int) http.Handler {
	t.Helper()
	gw := ws.NewGateway(ws.NewRoomManager(), ws.DefaultOptions())
	h := httpHandler.NewHandler(gw, config.DefaultConfig())

	wsLimiter := middleware.NewIPRateLimiter(1, 5)
	pageLimiter := middleware.NewIPRateLimiter(0.001, pageBurst)
	t.Cleanup(wsLimiter.Stop)
	t.Cleanup(pageLimiter.Stop)
	return routes(h, wsLimiter, pageLimiter)
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	req.RemoteAddr = "10.0.0.1:4000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRoutes_PagesAreRateLimited(t *testing.T) {
	h := newTestRoutes(t, 2)

	for i, path := range []string{"/healthz", "/"} {
		if w := get(h, path); w.Code != http.StatusOK {
			t.Fatalf("Request %d to %s: expected 200, got %d", i, path, w.Code)
		}
	}
	if w := get(h, "/healthz"); w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 once the page burst is spent, got %d", w.Code)
	}

	// The websocket endpoint has its own budget
	if w := get(h, "/ws"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected /ws to reach the handler and reject the missing room id, got %d", w.Code)
	}
}

func TestRoutes_SecurityHeadersEverywhere(t *testing.T) {
	h := newTestRoutes(t, 10)

	for _, path := range []string{"/", "/healthz", "/ws", "/missing"} {
		w := get(h, path)
		if w.Header().Get("X-Frame-Options") != "DENY" {
			t.Errorf("%s: missing security headers", path)
		}
	}
}
