package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg/id"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg/validate"
	"github.com/Fasilurahman/TeamVerse-sub001/repository"
	"github.com/Fasilurahman/TeamVerse-sub001/ws"
)

// NotificationService stores per-user notifications and pushes each new
// one to the recipient's personal channel.
type NotificationService interface {
	ListUnread(ctx context.Context, callerID, userID string) ([]models.Notification, error)
	// Create stores a notification a user addresses to themselves, such as
	// a reminder. Notifications for other users, and every system
	// notification, only come from the server through Notify.
	Create(ctx context.Context, callerID string, req *models.CreateNotificationRequest) (*models.Notification, error)
	// Notify is Create for internal callers; input is trusted.
	Notify(ctx context.Context, userID, message string, category models.NotificationCategory) (*models.Notification, error)
	MarkRead(ctx context.Context, callerID, notificationID string) error
	MarkAllRead(ctx context.Context, callerID, userID string) (int64, error)
}

type notificationService struct {
	repo      repository.NotificationRepository
	userRepo  repository.UserRepository
	publisher ws.EventPublisher
}

// NewNotificationService creates the service.
func NewNotificationService(
	repo repository.NotificationRepository,
	userRepo repository.UserRepository,
	publisher ws.EventPublisher,
) NotificationService {
	return &notificationService{repo: repo, userRepo: userRepo, publisher: publisher}
}

// ListUnread returns userID's unread notifications, newest first.
func (s *notificationService) ListUnread(ctx context.Context, callerID, userID string) ([]models.Notification, error) {
	if callerID != userID {
		return nil, fmt.Errorf("%w: cannot read another user's notifications", pkg.ErrForbidden)
	}
	return s.repo.ListUnread(ctx, userID)
}

// Create validates req and hands it to Notify.
func (s *notificationService) Create(ctx context.Context, callerID string, req *models.CreateNotificationRequest) (*models.Notification, error) {
	req.Message = strings.TrimSpace(req.Message)
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if req.UserID != callerID {
		return nil, fmt.Errorf("%w: cannot notify another user", pkg.ErrForbidden)
	}
	if req.Category == models.CategorySystem {
		return nil, fmt.Errorf("%w: system notifications are issued by the server", pkg.ErrForbidden)
	}

	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user %s", pkg.ErrBadRequest, req.UserID)
		}
		return nil, err
	}

	return s.Notify(ctx, req.UserID, req.Message, req.Category)
}

// Notify stores a notification and pushes it to user:<id>. Connections
// that are not joined to the personal channel pick it up on their next
// fetch.
func (s *notificationService) Notify(ctx context.Context, userID, message string, category models.NotificationCategory) (*models.Notification, error) {
	n := &models.Notification{
		ID:        id.NewSortable(),
		UserID:    userID,
		Message:   message,
		Category:  category,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	s.publisher.BroadcastToRoom(models.PersonalChannel(userID), ws.Event{
		Op:   ws.OpNotification,
		Data: n,
	})
	return n, nil
}

// MarkRead flips one notification to read. Marking an already read one
// succeeds without a write.
func (s *notificationService) MarkRead(ctx context.Context, callerID, notificationID string) error {
	n, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != callerID {
		return fmt.Errorf("%w: notification belongs to another user", pkg.ErrForbidden)
	}
	if n.Read {
		return nil
	}
	return s.repo.MarkRead(ctx, notificationID)
}

// MarkAllRead flips every unread notification of userID and returns how
// many changed.
func (s *notificationService) MarkAllRead(ctx context.Context, callerID, userID string) (int64, error) {
	if callerID != userID {
		return 0, fmt.Errorf("%w: cannot update another user's notifications", pkg.ErrForbidden)
	}

	changed, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		log.Printf("[notifications] user %s marked %d read", userID, changed)
	}
	return changed, nil
}
