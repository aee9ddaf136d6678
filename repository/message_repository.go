package repository

import (
	"context"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
)

// MessageRepository stores chat messages. Message IDs are ULIDs, so id
// order is creation order and beforeID works as a cursor.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	// ListByChat returns up to limit messages older than beforeID (newest
	// page when empty), oldest first.
	ListByChat(ctx context.Context, chatID, beforeID string, limit int) ([]models.Message, error)
}
