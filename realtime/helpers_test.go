package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Fasilurahman/TeamVerse-sub001/apiclient"
	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/ws"
)

func makeToken(t *testing.T, userID, username string) string {
	t.Helper()
	claims := models.TokenClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

type emitted struct {
	Op   string
	Data any
}

// recordingEmitter records every Emit. When down it fails like a
// disconnected Conn.
type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
	down   bool
}

func (e *recordingEmitter) Emit(op string, data any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.down {
		return ErrNotConnected
	}
	e.events = append(e.events, emitted{Op: op, Data: data})
	return nil
}

func (e *recordingEmitter) setDown(down bool) {
	e.mu.Lock()
	e.down = down
	e.mu.Unlock()
}

func (e *recordingEmitter) channels(op string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, ev := range e.events {
		if ev.Op != op {
			continue
		}
		if cd, ok := ev.Data.(ws.ChannelData); ok {
			out = append(out, cd.Channel)
		}
	}
	return out
}

func (e *recordingEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}

// mockAPI is a testify mock of the REST surface.
type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) CreateMessage(ctx context.Context, chatID, content string, file *apiclient.File) (*models.Message, error) {
	args := m.Called(ctx, chatID, content, file)
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

func (m *mockAPI) MarkNotificationRead(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAPI) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockAPI) SetToken(token string) {
	m.Called(token)
}

func (m *mockAPI) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]models.Notification)
	return list, args.Error(1)
}

func (m *mockAPI) ListUserChats(ctx context.Context, userID string) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	chats, _ := args.Get(0).([]models.Chat)
	return chats, args.Error(1)
}

func (m *mockAPI) ProjectChat(ctx context.Context, projectID string) (*models.Chat, error) {
	args := m.Called(ctx, projectID)
	chat, _ := args.Get(0).(*models.Chat)
	return chat, args.Error(1)
}

func (m *mockAPI) ListMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	msgs, _ := args.Get(0).([]models.Message)
	return msgs, args.Error(1)
}

func textMessage(id, chatID, senderID, text string) models.Message {
	return models.Message{ID: id, ChatID: chatID, SenderID: senderID, Content: &text, CreatedAt: time.Now()}
}

func messageEvent(channel string, m models.Message) ws.Event {
	return ws.Event{Op: ws.OpMessage, Data: ws.MessageData{ChannelID: channel, Message: m}}
}

func notificationEvent(n models.Notification) ws.Event {
	return ws.Event{Op: ws.OpNotification, Data: n}
}

func ids(msgs []models.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}
