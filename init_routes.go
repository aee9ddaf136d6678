// Package main: HTTP route registration.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Fasilurahman/TeamVerse-sub001/middleware"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg"
	"github.com/Fasilurahman/TeamVerse-sub001/services"
)

// initRoutes mounts the REST API under /api and the push transport at /ws.
func initRoutes(h *Handlers, authService services.AuthService, limiters *RateLimiters) http.Handler {
	authMw := middleware.NewAuthMiddleware(authService)
	messageLimit := middleware.RateLimit(limiters.Message, middleware.ByUser)

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			pkg.JSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "teamverse"})
		})

		// Auth
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)

		if h.Upload != nil {
			r.Get("/uploads/{name}", h.Upload.Serve)
		}

		r.Group(func(r chi.Router) {
			r.Use(authMw.Require)

			r.Get("/users/me", h.Auth.Me)

			// Chats
			r.Post("/chats", h.Chat.Create)
			r.Get("/chats/user/{userId}", h.Chat.ListForUser)
			r.Get("/chats/project/{projectId}", h.Chat.ProjectChat)
			r.Get("/chats/{chatId}/messages", h.Message.List)
			r.With(messageLimit).Post("/chats/{chatId}/messages", h.Message.Create)

			// Notifications: {id} is a user id for list and read-all,
			// a notification id for read.
			r.Post("/notifications", h.Notification.Create)
			r.Get("/notifications/{id}", h.Notification.ListUnread)
			r.Patch("/notifications/{id}/read", h.Notification.MarkRead)
			r.Patch("/notifications/{id}/read-all", h.Notification.MarkAllRead)
		})
	})

	// Browsers cannot set headers on the upgrade request, so the socket
	// authenticates with ?token= inside the handler.
	r.Get("/ws", h.WS.HandleConnection)

	return r
}
