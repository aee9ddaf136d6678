package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/Fasilurahman/TeamVerse-sub001/database"
	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg"
)

type sqliteMessageRepo struct {
	db database.TxQuerier
}

// NewSQLiteMessageRepo returns the SQLite MessageRepository.
func NewSQLiteMessageRepo(db database.TxQuerier) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

const messageSelect = `
	SELECT m.id, m.chat_id, m.sender_id,
	       COALESCE(NULLIF(u.display_name, ''), u.username, '') AS sender_name,
	       m.content, m.file_url, m.file_name, m.created_at
	FROM messages m
	LEFT JOIN users u ON u.id = m.sender_id`

func (r *sqliteMessageRepo) Create(ctx context.Context, message *models.Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, sender_id, content, file_url, file_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		message.ID, message.ChatID, message.SenderID,
		message.Content, message.FileURL, message.FileName, message.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *sqliteMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	msg := &models.Message{}
	err := r.db.GetContext(ctx, msg, messageSelect+" WHERE m.id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

func (r *sqliteMessageRepo) ListByChat(ctx context.Context, chatID, beforeID string, limit int) ([]models.Message, error) {
	query := messageSelect + " WHERE m.chat_id = ?"
	args := []any{chatID}
	if beforeID != "" {
		query += " AND m.id < ?"
		args = append(args, beforeID)
	}
	query += " ORDER BY m.id DESC LIMIT ?"
	args = append(args, limit)

	messages := []models.Message{}
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	// fetched newest first for the LIMIT
	slices.Reverse(messages)
	return messages, nil
}
