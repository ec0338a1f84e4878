package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mmuslimabdulj/goat-canvas/internal/config"
	httpHandler "github.com/mmuslimabdulj/goat-canvas/internal/delivery/http"
	"github.com/mmuslimabdulj/goat-canvas/internal/delivery/ws"
	"github.com/mmuslimabdulj/goat-canvas/internal/discovery"
	"github.com/mmuslimabdulj/goat-canvas/internal/middleware"
)

func main() {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	cfg := config.LoadFromEnv()

	// Configuring Logging
	if cfg.Silent() {
		log.SetOutput(io.Discard)
	}

	// Initialize dependencies
	gateway := ws.NewGateway(ws.NewRoomManager(), ws.Options{
		SendQueueSize:  cfg.SendQueueSize,
		MaxMessageSize: cfg.MaxMessageSize,
		CursorRate:     cfg.CursorRate,
		CursorBurst:    cfg.CursorBurst,
		Debug:          cfg.Debug(),
	})
	handler := httpHandler.NewHandler(gateway, cfg)

	wsLimiter := middleware.NewIPRateLimiter(cfg.RateLimitWS, cfg.RateLimitWSBurst)
	defer wsLimiter.Stop()
	pageLimiter := middleware.NewIPRateLimiter(cfg.RateLimitHTTP, cfg.RateLimitHTTPBurst)
	defer pageLimiter.Stop()

	// Setup routes
	securedHandler := routes(handler, wsLimiter, pageLimiter)

	// Websocket connections are long-lived, so no read/write timeouts on the server itself;
	// the pumps enforce their own deadlines
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           securedHandler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("goat-canvas running at http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// LAN discovery
	if cfg.MDNSEnabled {
		port, err := strconv.Atoi(cfg.Port)
		if err != nil {
			log.Printf("[mdns] not advertising, PORT %q is not numeric", cfg.Port)
		} else if mdnsServer, err := discovery.Advertise(cfg.MDNSInstance, port); err != nil {
			log.Printf("[mdns] %v", err)
		} else {
			defer mdnsServer.Shutdown()
		}
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		return
	}

	log.Println("Server exited gracefully")
}
