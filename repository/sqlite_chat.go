package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Fasilurahman/TeamVerse-sub001/database"
	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg"
)

type sqliteChatRepo struct {
	db *sqlx.DB
}

// NewSQLiteChatRepo returns the SQLite ChatRepository. It needs the pool
// itself because Create opens a transaction.
func NewSQLiteChatRepo(db *sqlx.DB) ChatRepository {
	return &sqliteChatRepo{db: db}
}

const chatColumns = `c.id, c.name, c.kind, c.project_id, c.created_at`

func (r *sqliteChatRepo) Create(ctx context.Context, chat *models.Chat) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chats (id, name, kind, project_id, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			chat.ID, chat.Name, chat.Kind, chat.ProjectID, chat.CreatedAt.UTC(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: project already has a chat", pkg.ErrAlreadyExists)
			}
			return fmt.Errorf("failed to create chat: %w", err)
		}

		for _, userID := range chat.Members {
			if err := addMember(ctx, tx, chat.ID, userID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *sqliteChatRepo) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	return r.getOne(ctx, "SELECT "+chatColumns+" FROM chats c WHERE c.id = ?", id)
}

func (r *sqliteChatRepo) GetByProjectID(ctx context.Context, projectID string) (*models.Chat, error) {
	return r.getOne(ctx, "SELECT "+chatColumns+" FROM chats c WHERE c.project_id = ?", projectID)
}

func (r *sqliteChatRepo) getOne(ctx context.Context, query, arg string) (*models.Chat, error) {
	chat := &models.Chat{}
	err := r.db.GetContext(ctx, chat, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	chat.Members, err = r.MemberIDs(ctx, chat.ID)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

func (r *sqliteChatRepo) ListByUser(ctx context.Context, userID string) ([]models.Chat, error) {
	chats := []models.Chat{}
	err := r.db.SelectContext(ctx, &chats, `
		SELECT `+chatColumns+`
		FROM chats c
		INNER JOIN chat_members m ON m.chat_id = c.id
		WHERE m.user_id = ?
		ORDER BY c.created_at DESC, c.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	for i := range chats {
		chats[i].Members, err = r.MemberIDs(ctx, chats[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return chats, nil
}

func (r *sqliteChatRepo) IsMember(ctx context.Context, chatID, userID string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM chat_members WHERE chat_id = ? AND user_id = ?", chatID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check chat membership: %w", err)
	}
	return count > 0, nil
}

func (r *sqliteChatRepo) AddMember(ctx context.Context, chatID, userID string) error {
	return addMember(ctx, r.db, chatID, userID)
}

func (r *sqliteChatRepo) MemberIDs(ctx context.Context, chatID string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids,
		"SELECT user_id FROM chat_members WHERE chat_id = ? ORDER BY joined_at, user_id", chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat members: %w", err)
	}
	return ids, nil
}

func addMember(ctx context.Context, q database.TxQuerier, chatID, userID string) error {
	_, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO chat_members (chat_id, user_id, joined_at)
		VALUES (?, ?, ?)`, chatID, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add chat member: %w", err)
	}
	return nil
}
