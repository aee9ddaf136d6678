package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg/id"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg/validate"
	"github.com/Fasilurahman/TeamVerse-sub001/repository"
)

// ChatService manages chats and membership. It also decides which chat
// rooms a push connection may join.
type ChatService interface {
	ListForUser(ctx context.Context, callerID, userID string) ([]models.Chat, error)
	// ProjectChat returns the project's chat, creating it on first access,
	// and makes sure the caller is a member.
	ProjectChat(ctx context.Context, projectID, callerID string) (*models.Chat, error)
	Create(ctx context.Context, callerID string, req *models.CreateChatRequest) (*models.Chat, error)
	RequireMember(ctx context.Context, chatID, userID string) error
	MemberIDs(ctx context.Context, chatID string) ([]string, error)

	// CanJoin implements ws.RoomAuthorizer for chat rooms.
	CanJoin(ctx context.Context, userID, room string) (bool, error)
}

type chatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
}

// NewChatService creates the service.
func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository) ChatService {
	return &chatService{chatRepo: chatRepo, userRepo: userRepo}
}

// ListForUser returns the chats userID belongs to. Only the caller's own
// list is readable.
func (s *chatService) ListForUser(ctx context.Context, callerID, userID string) ([]models.Chat, error) {
	if callerID != userID {
		return nil, fmt.Errorf("%w: cannot list another user's chats", pkg.ErrForbidden)
	}
	return s.chatRepo.ListByUser(ctx, userID)
}

// ProjectChat resolves the project's group chat.
//
// Two members opening a new project at once both try to create it; the
// loser of the unique project_id constraint reads the winner's row.
func (s *chatService) ProjectChat(ctx context.Context, projectID, callerID string) (*models.Chat, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", pkg.ErrBadRequest)
	}

	chat, err := s.chatRepo.GetByProjectID(ctx, projectID)
	if errors.Is(err, pkg.ErrNotFound) {
		chat = &models.Chat{
			ID:        id.New(),
			Name:      "Project " + projectID,
			Kind:      models.ChatKindGroup,
			ProjectID: &projectID,
			Members:   []string{callerID},
			CreatedAt: time.Now(),
		}
		err = s.chatRepo.Create(ctx, chat)
		if errors.Is(err, pkg.ErrAlreadyExists) {
			// created concurrently by another member
			chat, err = s.chatRepo.GetByProjectID(ctx, projectID)
		}
	}
	if err != nil {
		return nil, err
	}

	if !slices.Contains(chat.Members, callerID) {
		if err := s.chatRepo.AddMember(ctx, chat.ID, callerID); err != nil {
			return nil, err
		}
		chat.Members = append(chat.Members, callerID)
	}
	return chat, nil
}

// Create makes a group or direct chat. The caller is always a member and
// listed first; duplicate members are dropped.
func (s *chatService) Create(ctx context.Context, callerID string, req *models.CreateChatRequest) (*models.Chat, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	// ─── Members ───
	members := []string{callerID}
	for _, m := range req.Members {
		if !slices.Contains(members, m) {
			members = append(members, m)
		}
	}

	if req.Kind == models.ChatKindDirect && len(members) != 2 {
		return nil, fmt.Errorf("%w: a direct chat has exactly two members", pkg.ErrBadRequest)
	}
	if req.Kind == models.ChatKindGroup && req.Name == "" {
		return nil, fmt.Errorf("%w: a group chat needs a name", pkg.ErrBadRequest)
	}

	// every other member must exist
	for _, m := range members[1:] {
		if _, err := s.userRepo.GetByID(ctx, m); err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown user %s", pkg.ErrBadRequest, m)
			}
			return nil, err
		}
	}

	chat := &models.Chat{
		ID:        id.New(),
		Name:      req.Name,
		Kind:      req.Kind,
		Members:   members,
		CreatedAt: time.Now(),
	}
	if err := s.chatRepo.Create(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// RequireMember returns pkg.ErrForbidden unless userID is in chatID.
func (s *chatService) RequireMember(ctx context.Context, chatID, userID string) error {
	ok, err := s.chatRepo.IsMember(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: not a member of this chat", pkg.ErrForbidden)
	}
	return nil
}

// MemberIDs lists the user ids of chatID.
func (s *chatService) MemberIDs(ctx context.Context, chatID string) ([]string, error) {
	return s.chatRepo.MemberIDs(ctx, chatID)
}

// CanJoin is the membership check behind push room joins.
func (s *chatService) CanJoin(ctx context.Context, userID, room string) (bool, error) {
	return s.chatRepo.IsMember(ctx, room, userID)
}
