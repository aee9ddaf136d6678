package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/Fasilurahman/TeamVerse-sub001/config"
	"github.com/Fasilurahman/TeamVerse-sub001/database"
	"github.com/Fasilurahman/TeamVerse-sub001/services"
	"github.com/Fasilurahman/TeamVerse-sub001/ws"
)

const membershipTTL = time.Minute

// App is the fully wired server minus the listener.
type App struct {
	Handler http.Handler
	Hub     *ws.Hub

	closers []func()
}

// Close releases everything newApp opened, last opened first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// newApp builds the object graph. ctx bounds background work such as
// the Redis listener.
func newApp(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	app := &App{}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	// ─── Database ───
	db, err := database.New(cfg.Database.Path, database.Migrations())
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	app.closers = append(app.closers, func() { db.Close() })

	// ─── Repositories ───
	repos := initRepositories(db)

	// ─── Attachment Storage ───
	store, local, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}

	// ─── WebSocket Hub ───
	//
	// The chat service authorizes room joins, so it exists before the hub.
	// Positive answers are cached; members are never removed from a chat.
	chatService := services.NewChatService(repos.Chat, repos.User)
	membership := services.NewMembershipCache(chatService, membershipTTL)
	app.closers = append(app.closers, membership.Close)
	hub := ws.NewHub(membership)
	hub.SetMessageLookup(repos.Message)
	go hub.Run()
	app.Hub = hub
	app.closers = append(app.closers, hub.Shutdown)

	closeRelay, err := startRelay(ctx, hub, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("start redis relay: %w", err)
	}
	app.closers = append(app.closers, closeRelay)

	// ─── Services ───
	svcs := initServices(repos, chatService, store, hub, cfg)
	limiters := initRateLimiters(cfg.RateLimit)
	app.closers = append(app.closers, limiters.Stop)

	// ─── Handlers + Routes ───
	h := initHandlers(svcs, limiters, hub, local, cfg)
	router := initRoutes(h, svcs.Auth, limiters)

	// ─── CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
	})
	app.Handler = corsHandler.Handler(router)

	return app, nil
}
