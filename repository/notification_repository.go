package repository

import (
	"context"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
)

// NotificationRepository stores per-user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	// ListUnread returns userID's unread notifications, newest first.
	ListUnread(ctx context.Context, userID string) ([]models.Notification, error)
	// MarkRead returns pkg.ErrNotFound for an unknown id. Marking an
	// already-read notification succeeds.
	MarkRead(ctx context.Context, id string) error
	// MarkAllRead returns how many notifications changed.
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}
