// Package main: service layer setup.
//
// Order matters: the chat service is the hub's room authorizer, and the
// notification service publishes through the hub, so the hub is created
// between the two.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Fasilurahman/TeamVerse-sub001/config"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg/ratelimit"
	"github.com/Fasilurahman/TeamVerse-sub001/services"
	"github.com/Fasilurahman/TeamVerse-sub001/storage"
	"github.com/Fasilurahman/TeamVerse-sub001/ws"
)

// Services holds every service instance.
type Services struct {
	Auth         services.AuthService
	Chat         services.ChatService
	Message      services.MessageService
	Notification services.NotificationService
	Upload       services.UploadService
}

// RateLimiters holds the keyed limiters used by the HTTP layer.
type RateLimiters struct {
	Login   *ratelimit.KeyedLimiter
	Message *ratelimit.KeyedLimiter
}

// Stop ends the limiters' cleanup goroutines.
func (l *RateLimiters) Stop() {
	l.Login.Stop()
	l.Message.Stop()
}

// initServices wires the services. chats is created by the caller because
// the hub needs it before the notification service can exist.
func initServices(repos *Repositories, chats services.ChatService, store storage.Store, hub ws.EventPublisher, cfg *config.Config) *Services {
	authService := services.NewAuthService(repos.User, cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	uploadService := services.NewUploadService(store, cfg.Upload.MaxSize)
	notificationService := services.NewNotificationService(repos.Notification, repos.User, hub)
	messageService := services.NewMessageService(repos.Message, repos.User, chats, uploadService, notificationService)

	return &Services{
		Auth:         authService,
		Chat:         chats,
		Message:      messageService,
		Notification: notificationService,
		Upload:       uploadService,
	}
}

// initRateLimiters creates the login limiter (5 attempts, one more every
// 24s per IP) and the per-user message limiter from config.
func initRateLimiters(cfg config.RateLimitConfig) *RateLimiters {
	perMinute := cfg.MessagesPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &RateLimiters{
		Login:   ratelimit.Every(24*time.Second, 5),
		Message: ratelimit.Every(time.Minute/time.Duration(perMinute), burst),
	}
}

// initStorage picks the attachment store. The local store is returned
// separately so its files can be served; it is nil for s3.
func initStorage(ctx context.Context, cfg *config.Config) (storage.Store, *storage.LocalStore, error) {
	switch cfg.Storage.Driver {
	case "s3":
		client, err := storage.NewS3Client(ctx, cfg.Storage)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[main] attachments stored in s3 bucket %s", cfg.Storage.S3Bucket)
		return storage.NewS3Store(client, cfg.Storage.S3Bucket, cfg.Storage.S3Region, cfg.Storage.S3PublicURL), nil, nil
	case "", "local":
		local, err := storage.NewLocalStore(cfg.Upload.Dir)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[main] attachments stored in %s", cfg.Upload.Dir)
		return local, local, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
