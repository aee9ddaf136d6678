// Package main: handler layer setup.
package main

import (
	"github.com/Fasilurahman/TeamVerse-sub001/config"
	"github.com/Fasilurahman/TeamVerse-sub001/handlers"
	"github.com/Fasilurahman/TeamVerse-sub001/storage"
	"github.com/Fasilurahman/TeamVerse-sub001/ws"
)

// Handlers holds every handler instance.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Chat         *handlers.ChatHandler
	Message      *handlers.MessageHandler
	Notification *handlers.NotificationHandler
	Upload       *handlers.UploadHandler // nil unless files are stored locally
	WS           *ws.Handler
}

func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub, local *storage.LocalStore, cfg *config.Config) *Handlers {
	h := &Handlers{
		Auth:         handlers.NewAuthHandler(svcs.Auth, limiters.Login),
		Chat:         handlers.NewChatHandler(svcs.Chat),
		Message:      handlers.NewMessageHandler(svcs.Message, cfg.Upload.MaxSize),
		Notification: handlers.NewNotificationHandler(svcs.Notification),
		WS:           ws.NewHandler(hub, svcs.Auth),
	}
	if local != nil {
		h.Upload = handlers.NewUploadHandler(local)
	}
	return h
}
