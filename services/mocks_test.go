package services

import (
	"context"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/ws"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

type mockChatRepo struct{ mock.Mock }

func (m *mockChatRepo) Create(ctx context.Context, chat *models.Chat) error {
	return m.Called(ctx, chat).Error(0)
}

func (m *mockChatRepo) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Chat)
	return c, args.Error(1)
}

func (m *mockChatRepo) GetByProjectID(ctx context.Context, projectID string) (*models.Chat, error) {
	args := m.Called(ctx, projectID)
	c, _ := args.Get(0).(*models.Chat)
	return c, args.Error(1)
}

func (m *mockChatRepo) ListByUser(ctx context.Context, userID string) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).([]models.Chat)
	return c, args.Error(1)
}

func (m *mockChatRepo) IsMember(ctx context.Context, chatID, userID string) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockChatRepo) AddMember(ctx context.Context, chatID, userID string) error {
	return m.Called(ctx, chatID, userID).Error(0)
}

func (m *mockChatRepo) MemberIDs(ctx context.Context, chatID string) ([]string, error) {
	args := m.Called(ctx, chatID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type mockMessageRepo struct{ mock.Mock }

func (m *mockMessageRepo) Create(ctx context.Context, message *models.Message) error {
	return m.Called(ctx, message).Error(0)
}

func (m *mockMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	args := m.Called(ctx, id)
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

func (m *mockMessageRepo) ListByChat(ctx context.Context, chatID, beforeID string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, chatID, beforeID, limit)
	msgs, _ := args.Get(0).([]models.Message)
	return msgs, args.Error(1)
}

type mockNotificationRepo struct{ mock.Mock }

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockNotificationRepo) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	args := m.Called(ctx, id)
	n, _ := args.Get(0).(*models.Notification)
	return n, args.Error(1)
}

func (m *mockNotificationRepo) ListUnread(ctx context.Context, userID string) ([]models.Notification, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]models.Notification)
	return list, args.Error(1)
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// publisherRecorder records room broadcasts.
type publisherRecorder struct {
	mu    sync.Mutex
	rooms []string
	ops   []string
}

func (p *publisherRecorder) BroadcastToRoom(room string, event ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rooms = append(p.rooms, room)
	p.ops = append(p.ops, event.Op)
}

func (p *publisherRecorder) BroadcastToUser(userID string, event ws.Event) {
	p.BroadcastToRoom(models.PersonalChannel(userID), event)
}

// memoryStore keeps saved objects in a map.
type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memoryStore) Save(_ context.Context, key string, r io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = contentType
	return "mem://" + key, nil
}

func (s *memoryStore) only() (string, []byte, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.objects {
		return k, v, s.types[k]
	}
	return "", nil, ""
}
