package services

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg/id"
	"github.com/Fasilurahman/TeamVerse-sub001/repository"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 100
	previewLength       = 80
)

// MessageService reads and writes chat history. Creating a message does
// not broadcast it: the sending client mirrors the confirmed message onto
// the push channel. Other members get a notification.
type MessageService interface {
	List(ctx context.Context, chatID, callerID, beforeID string, limit int) ([]models.Message, error)
	Create(ctx context.Context, chatID, callerID string, req *models.CreateMessageRequest, file *UploadInput) (*models.Message, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	chats       ChatService
	uploads     UploadService
	notifier    NotificationService
}

// NewMessageService creates the service.
func NewMessageService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	chats ChatService,
	uploads UploadService,
	notifier NotificationService,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		chats:       chats,
		uploads:     uploads,
		notifier:    notifier,
	}
}

// List returns one page of chatID, oldest first. beforeID pages back
// through older messages; limit is clamped to [1, maxMessageLimit].
func (s *messageService) List(ctx context.Context, chatID, callerID, beforeID string, limit int) ([]models.Message, error) {
	if err := s.chats.RequireMember(ctx, chatID, callerID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}
	return s.messageRepo.ListByChat(ctx, chatID, beforeID, limit)
}

// Create stores a message from the multipart form.
//
// Order matters: membership, validation, upload, persist, notify. A
// failed upload leaves nothing in the database, and notifications only go
// out for stored messages.
func (s *messageService) Create(ctx context.Context, chatID, callerID string, req *models.CreateMessageRequest, file *UploadInput) (*models.Message, error) {
	if err := s.chats.RequireMember(ctx, chatID, callerID); err != nil {
		return nil, err
	}

	req.HasFile = file != nil
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	// ─── Build ───
	sender, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:         id.NewSortable(),
		ChatID:     chatID,
		SenderID:   callerID,
		SenderName: sender.Name(),
		CreatedAt:  time.Now(),
	}
	if req.Content != "" {
		content := req.Content
		msg.Content = &content
	}

	// ─── Upload ───
	if file != nil {
		uploaded, err := s.uploads.Upload(ctx, *file)
		if err != nil {
			return nil, err
		}
		msg.FileURL = &uploaded.URL
		msg.FileName = &uploaded.Name
	}

	// ─── Persist + Notify ───
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.notifyMembers(ctx, msg)
	return msg, nil
}

// notifyMembers tells every other member about msg. Failures are logged;
// the message itself is already stored.
func (s *messageService) notifyMembers(ctx context.Context, msg *models.Message) {
	members, err := s.chats.MemberIDs(ctx, msg.ChatID)
	if err != nil {
		log.Printf("[messages] failed to load members of %s: %v", msg.ChatID, err)
		return
	}

	text := fmt.Sprintf("%s: %s", msg.SenderName, preview(msg))
	for _, userID := range members {
		if userID == msg.SenderID {
			continue
		}
		if _, err := s.notifier.Notify(ctx, userID, text, models.CategoryMessage); err != nil {
			log.Printf("[messages] failed to notify %s: %v", userID, err)
		}
	}
}

// preview shortens msg for a notification line.
func preview(msg *models.Message) string {
	text := msg.Text()
	if text == "" && msg.FileName != nil {
		return "sent " + *msg.FileName
	}
	if utf8.RuneCountInString(text) > previewLength {
		runes := []rune(text)
		return string(runes[:previewLength]) + "..."
	}
	return text
}
