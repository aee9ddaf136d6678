// Package main is the TeamVerse backend: REST API plus the push transport
// the realtime client core connects to.
//
// Wire-up order (see newApp):
//  1. Config
//  2. Database
//  3. Repositories
//  4. Attachment storage
//  5. WebSocket hub (+ optional Redis relay)
//  6. Services and rate limiters
//  7. Handlers and routes
//  8. CORS
//  9. HTTP server
//  10. Graceful shutdown
//
// No globals: everything is created in newApp and passed down.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fasilurahman/TeamVerse-sub001/config"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] teamverse server starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d)", cfg.Server.Port)

	// ─── 2-8. Object Graph ───
	app, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatalf("[main] %v", err)
	}
	defer app.Close()

	// ─── 9. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      app.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	// ─── 10. Graceful Shutdown ───
	<-ctx.Done()
	log.Println("[main] shutting down...")

	// Sockets first so clients see the close, then drain HTTP.
	app.Hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
