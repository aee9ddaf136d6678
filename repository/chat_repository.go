package repository

import (
	"context"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
)

// ChatRepository stores chats and their member lists. Returned chats carry
// Members.
type ChatRepository interface {
	// Create inserts the chat and its members atomically.
	Create(ctx context.Context, chat *models.Chat) error
	GetByID(ctx context.Context, id string) (*models.Chat, error)
	GetByProjectID(ctx context.Context, projectID string) (*models.Chat, error)
	ListByUser(ctx context.Context, userID string) ([]models.Chat, error)

	IsMember(ctx context.Context, chatID, userID string) (bool, error)
	// AddMember is a no-op for an existing member.
	AddMember(ctx context.Context, chatID, userID string) error
	MemberIDs(ctx context.Context, chatID string) ([]string, error)
}
