package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mmuslimabdulj/goat-canvas/internal/canvas"
	"github.com/mmuslimabdulj/goat-canvas/internal/discovery"
	"github.com/mmuslimabdulj/goat-canvas/internal/domain"
)

func main() {
	// Load .env file (ignore error if not exists)
	_ = godotenv.Load()

	serverAddr := flag.String("server", envOr("CANVAS_SERVER", "localhost:3001"), "canvas server address")
	roomID := flag.String("room", os.Getenv("CANVAS_ROOM"), "room to join")
	discover := flag.Duration("discover", 0, "browse the local network for a server for this long instead of using -server")
	flag.Parse()

	if *roomID == "" {
		fmt.Fprintln(os.Stderr, "usage: client -room <id> [-server host:port | -discover 3s]")
		os.Exit(2)
	}

	if *discover > 0 {
		servers, err := discovery.Browse(*discover)
		if err != nil {
			log.Fatalf("[mdns] %v", err)
		}
		if len(servers) == 0 {
			log.Fatalf("[mdns] no canvas server found within %s", *discover)
		}
		log.Printf("[mdns] using %s (%s)", servers[0].Addr, servers[0].Instance)
		*serverAddr = servers[0].Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := canvas.NewReconciler(canvas.NewStore(), nil, 0)
	rec.OnChange(func(ev domain.Event) {
		if ev == nil {
			s := rec.Store()
			log.Printf("[canvas] joined %s as %s: %d elements, %d users", *roomID, s.Self(), len(s.Elements()), len(s.Users()))
			return
		}
		if _, ok := ev.(domain.CursorMoved); ok {
			return
		}
		log.Printf("[canvas] remote %s", ev.Type())
	})
	go rec.Run(ctx)
	go connectLoop(ctx, rec, *serverAddr, *roomID)

	if err := runCommands(ctx, rec, os.Stdin, os.Stdout); err != nil {
		log.Printf("input: %v", err)
	}
}

// connectLoop keeps the reconciler connected, starting over from a fresh
// room:init after every drop
func connectLoop(ctx context.Context, rec *canvas.Reconciler, server, roomID string) {
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := canvas.Dial(ctx, server, roomID)
		if err != nil {
			log.Printf("[canvas] %v, retrying in %s", err, backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, 30*time.Second)
			continue
		}
		backoff = time.Second
		log.Printf("[canvas] connected to %s, room %s", server, conn.RoomID())

		rec.Do(ctx, func(r *canvas.Reconciler) { r.SetSender(conn) })
		if err := conn.Listen(ctx, rec); err != nil {
			log.Printf("[canvas] connection lost: %v", err)
		}
		rec.Do(ctx, func(r *canvas.Reconciler) { r.SetSender(nil) })
		conn.Close()
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
