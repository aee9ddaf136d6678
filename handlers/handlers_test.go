package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg/ratelimit"
	"github.com/Fasilurahman/TeamVerse-sub001/services"
	"github.com/Fasilurahman/TeamVerse-sub001/storage"
)

// ─── mocks ───

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, req *models.CreateUserRequest) (*models.AuthTokens, error) {
	args := m.Called(ctx, req)
	tokens, _ := args.Get(0).(*models.AuthTokens)
	return tokens, args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthTokens, error) {
	args := m.Called(ctx, req)
	tokens, _ := args.Get(0).(*models.AuthTokens)
	return tokens, args.Error(1)
}

func (m *mockAuthService) ValidateAccessToken(token string) (*models.TokenClaims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(*models.TokenClaims)
	return claims, args.Error(1)
}

func (m *mockAuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

type mockChatService struct{ mock.Mock }

func (m *mockChatService) ListForUser(ctx context.Context, callerID, userID string) ([]models.Chat, error) {
	args := m.Called(ctx, callerID, userID)
	chats, _ := args.Get(0).([]models.Chat)
	return chats, args.Error(1)
}

func (m *mockChatService) ProjectChat(ctx context.Context, projectID, callerID string) (*models.Chat, error) {
	args := m.Called(ctx, projectID, callerID)
	chat, _ := args.Get(0).(*models.Chat)
	return chat, args.Error(1)
}

func (m *mockChatService) Create(ctx context.Context, callerID string, req *models.CreateChatRequest) (*models.Chat, error) {
	args := m.Called(ctx, callerID, req)
	chat, _ := args.Get(0).(*models.Chat)
	return chat, args.Error(1)
}

func (m *mockChatService) RequireMember(ctx context.Context, chatID, userID string) error {
	return m.Called(ctx, chatID, userID).Error(0)
}

func (m *mockChatService) MemberIDs(ctx context.Context, chatID string) ([]string, error) {
	args := m.Called(ctx, chatID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *mockChatService) CanJoin(ctx context.Context, userID, room string) (bool, error) {
	args := m.Called(ctx, userID, room)
	return args.Bool(0), args.Error(1)
}

type mockMessageService struct {
	mock.Mock
	lastFile []byte
}

func (m *mockMessageService) List(ctx context.Context, chatID, callerID, beforeID string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, chatID, callerID, beforeID, limit)
	msgs, _ := args.Get(0).([]models.Message)
	return msgs, args.Error(1)
}

func (m *mockMessageService) Create(ctx context.Context, chatID, callerID string, req *models.CreateMessageRequest, file *services.UploadInput) (*models.Message, error) {
	if file != nil {
		m.lastFile, _ = io.ReadAll(file.Reader)
	}
	args := m.Called(ctx, chatID, callerID, req, file)
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

type mockNotificationService struct{ mock.Mock }

func (m *mockNotificationService) ListUnread(ctx context.Context, callerID, userID string) ([]models.Notification, error) {
	args := m.Called(ctx, callerID, userID)
	list, _ := args.Get(0).([]models.Notification)
	return list, args.Error(1)
}

func (m *mockNotificationService) Create(ctx context.Context, callerID string, req *models.CreateNotificationRequest) (*models.Notification, error) {
	args := m.Called(ctx, callerID, req)
	n, _ := args.Get(0).(*models.Notification)
	return n, args.Error(1)
}

func (m *mockNotificationService) Notify(ctx context.Context, userID, message string, category models.NotificationCategory) (*models.Notification, error) {
	args := m.Called(ctx, userID, message, category)
	n, _ := args.Get(0).(*models.Notification)
	return n, args.Error(1)
}

func (m *mockNotificationService) MarkRead(ctx context.Context, callerID, notificationID string) error {
	return m.Called(ctx, callerID, notificationID).Error(0)
}

func (m *mockNotificationService) MarkAllRead(ctx context.Context, callerID, userID string) (int64, error) {
	args := m.Called(ctx, callerID, userID)
	return args.Get(0).(int64), args.Error(1)
}

// ─── helpers ───

var alice = &models.User{ID: "u1", Username: "alice"}

// serve routes req through a chi router with pattern so URL params
// resolve, and injects user into the context when non-nil.
func serve(method, pattern string, h http.HandlerFunc, req *http.Request, user *models.User) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)

	if user != nil {
		req = req.WithContext(context.WithValue(req.Context(), UserContextKey, user))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if v != nil {
		require.NoError(t, json.Unmarshal(env.Data, v))
	}
	return env
}

func jsonRequest(method, path string, body any) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ─── auth ───

func TestAuthHandler_Register(t *testing.T) {
	svc := new(mockAuthService)
	svc.On("Register", mock.Anything, &models.CreateUserRequest{Username: "alice", Password: "password1"}).
		Return(&models.AuthTokens{AccessToken: "tok", User: *alice}, nil)

	h := NewAuthHandler(svc, nil)
	rec := serve(http.MethodPost, "/auth/register", h.Register,
		jsonRequest(http.MethodPost, "/auth/register", map[string]string{"username": "alice", "password": "password1"}), nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var tokens models.AuthTokens
	env := decode(t, rec, &tokens)
	assert.True(t, env.Success)
	assert.Equal(t, "tok", tokens.AccessToken)
}

func TestAuthHandler_RegisterBadBody(t *testing.T) {
	h := NewAuthHandler(new(mockAuthService), nil)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString("{"))

	rec := serve(http.MethodPost, "/auth/register", h.Register, req, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decode(t, rec, nil).Error)
}

func TestAuthHandler_LoginLimitedByIP(t *testing.T) {
	svc := new(mockAuthService)
	svc.On("Login", mock.Anything, mock.Anything).Return(nil, pkg.ErrUnauthorized)

	limiter := ratelimit.New(0, 2)
	defer limiter.Stop()
	h := NewAuthHandler(svc, limiter)

	login := func() *httptest.ResponseRecorder {
		req := jsonRequest(http.MethodPost, "/auth/login", map[string]string{"username": "alice", "password": "wrong"})
		req.RemoteAddr = "10.0.0.1:5000"
		return serve(http.MethodPost, "/auth/login", h.Login, req, nil)
	}

	assert.Equal(t, http.StatusUnauthorized, login().Code)
	assert.Equal(t, http.StatusUnauthorized, login().Code)

	rec := login()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	svc.AssertNumberOfCalls(t, "Login", 2)
}

func TestAuthHandler_SuccessfulLoginResetsLimiter(t *testing.T) {
	svc := new(mockAuthService)
	svc.On("Login", mock.Anything, mock.Anything).Return(&models.AuthTokens{AccessToken: "tok"}, nil)

	limiter := ratelimit.New(0, 1)
	defer limiter.Stop()
	h := NewAuthHandler(svc, limiter)

	for range 3 {
		req := jsonRequest(http.MethodPost, "/auth/login", map[string]string{"username": "alice", "password": "password1"})
		rec := serve(http.MethodPost, "/auth/login", h.Login, req, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	h := NewAuthHandler(new(mockAuthService), nil)

	rec := serve(http.MethodGet, "/users/me", h.Me, httptest.NewRequest(http.MethodGet, "/users/me", nil), alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	var user models.User
	decode(t, rec, &user)
	assert.Equal(t, "u1", user.ID)

	rec = serve(http.MethodGet, "/users/me", h.Me, httptest.NewRequest(http.MethodGet, "/users/me", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ─── chats ───

func TestChatHandler_ListForUser(t *testing.T) {
	svc := new(mockChatService)
	svc.On("ListForUser", mock.Anything, "u1", "u1").Return([]models.Chat{{ID: "c1", Name: "general"}}, nil)
	svc.On("ListForUser", mock.Anything, "u1", "u2").Return(nil, pkg.ErrForbidden)
	h := NewChatHandler(svc)

	rec := serve(http.MethodGet, "/chats/user/{userId}", h.ListForUser, httptest.NewRequest(http.MethodGet, "/chats/user/u1", nil), alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	var chats []models.Chat
	decode(t, rec, &chats)
	require.Len(t, chats, 1)
	assert.Equal(t, "c1", chats[0].ID)

	rec = serve(http.MethodGet, "/chats/user/{userId}", h.ListForUser, httptest.NewRequest(http.MethodGet, "/chats/user/u2", nil), alice)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestChatHandler_ProjectChat(t *testing.T) {
	svc := new(mockChatService)
	svc.On("ProjectChat", mock.Anything, "p1", "u1").Return(&models.Chat{ID: "c9", Members: []string{"u1"}}, nil)
	h := NewChatHandler(svc)

	rec := serve(http.MethodGet, "/chats/project/{projectId}", h.ProjectChat, httptest.NewRequest(http.MethodGet, "/chats/project/p1", nil), alice)

	assert.Equal(t, http.StatusOK, rec.Code)
	var chat models.Chat
	decode(t, rec, &chat)
	assert.Equal(t, "c9", chat.ID)
}

func TestChatHandler_Create(t *testing.T) {
	svc := new(mockChatService)
	svc.On("Create", mock.Anything, "u1", mock.MatchedBy(func(req *models.CreateChatRequest) bool {
		return req.Kind == models.ChatKindDirect && len(req.Members) == 1 && req.Members[0] == "u2"
	})).Return(&models.Chat{ID: "c2", Kind: models.ChatKindDirect, Members: []string{"u1", "u2"}}, nil)
	h := NewChatHandler(svc)

	req := jsonRequest(http.MethodPost, "/chats", map[string]any{"kind": "direct", "members": []string{"u2"}})
	rec := serve(http.MethodPost, "/chats", h.Create, req, alice)

	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

// ─── messages ───

func TestMessageHandler_ListPassesPaging(t *testing.T) {
	svc := new(mockMessageService)
	svc.On("List", mock.Anything, "c1", "u1", "01HX", 20).Return([]models.Message{{ID: "m1"}}, nil)
	h := NewMessageHandler(svc, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/chats/c1/messages?before=01HX&limit=20", nil)
	rec := serve(http.MethodGet, "/chats/{chatId}/messages", h.List, req, alice)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestMessageHandler_ListRejectsBadLimit(t *testing.T) {
	svc := new(mockMessageService)
	h := NewMessageHandler(svc, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/chats/c1/messages?limit=abc", nil)
	rec := serve(http.MethodGet, "/chats/{chatId}/messages", h.List, req, alice)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func multipartRequest(t *testing.T, path, content string, fileName string, fileData []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("content", content))
	if fileName != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestMessageHandler_CreateMultipartWithFile(t *testing.T) {
	svc := new(mockMessageService)
	svc.On("Create", mock.Anything, "c1", "u1",
		&models.CreateMessageRequest{Content: "look", HasFile: true},
		mock.MatchedBy(func(in *services.UploadInput) bool {
			return in != nil && in.Filename == "cat.png" && in.ContentType == "image/png" && in.Size == 4
		}),
	).Return(&models.Message{ID: "m1", ChatID: "c1"}, nil)
	h := NewMessageHandler(svc, 1<<20)

	req := multipartRequest(t, "/chats/c1/messages", "look", "cat.png", []byte("meow"))
	rec := serve(http.MethodPost, "/chats/{chatId}/messages", h.Create, req, alice)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []byte("meow"), svc.lastFile)
	svc.AssertExpectations(t)
}

func TestMessageHandler_CreateTextOnly(t *testing.T) {
	svc := new(mockMessageService)
	svc.On("Create", mock.Anything, "c1", "u1", &models.CreateMessageRequest{Content: "hi"}, (*services.UploadInput)(nil)).
		Return(&models.Message{ID: "m1"}, nil).Twice()
	h := NewMessageHandler(svc, 1<<20)

	rec := serve(http.MethodPost, "/chats/{chatId}/messages", h.Create, multipartRequest(t, "/chats/c1/messages", "hi", "", nil), alice)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(http.MethodPost, "/chats/{chatId}/messages", h.Create,
		jsonRequest(http.MethodPost, "/chats/c1/messages", map[string]string{"content": "hi"}), alice)
	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestMessageHandler_CreateTooLarge(t *testing.T) {
	svc := new(mockMessageService)
	h := NewMessageHandler(svc, 16)

	big := bytes.Repeat([]byte("x"), multipartOverhead+64)
	req := multipartRequest(t, "/chats/c1/messages", "", "big.png", big)
	rec := serve(http.MethodPost, "/chats/{chatId}/messages", h.Create, req, alice)

	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, rec.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMessageHandler_CreateMapsServiceErrors(t *testing.T) {
	svc := new(mockMessageService)
	svc.On("Create", mock.Anything, "c1", "u1", mock.Anything, mock.Anything).Return(nil, pkg.ErrForbidden)
	h := NewMessageHandler(svc, 1<<20)

	rec := serve(http.MethodPost, "/chats/{chatId}/messages", h.Create, multipartRequest(t, "/chats/c1/messages", "hi", "", nil), alice)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, decode(t, rec, nil).Success)
}

// ─── notifications ───

func TestNotificationHandler_ListUnread(t *testing.T) {
	svc := new(mockNotificationService)
	svc.On("ListUnread", mock.Anything, "u1", "u1").Return([]models.Notification{{ID: "n1", UserID: "u1"}}, nil)
	h := NewNotificationHandler(svc)

	rec := serve(http.MethodGet, "/notifications/{id}", h.ListUnread, httptest.NewRequest(http.MethodGet, "/notifications/u1", nil), alice)

	assert.Equal(t, http.StatusOK, rec.Code)
	var list []models.Notification
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "n1", list[0].ID)
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	svc := new(mockNotificationService)
	svc.On("MarkRead", mock.Anything, "u1", "n1").Return(nil)
	svc.On("MarkRead", mock.Anything, "u1", "n2").Return(pkg.ErrNotFound)
	h := NewNotificationHandler(svc)

	rec := serve(http.MethodPatch, "/notifications/{id}/read", h.MarkRead, httptest.NewRequest(http.MethodPatch, "/notifications/n1/read", nil), alice)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(http.MethodPatch, "/notifications/{id}/read", h.MarkRead, httptest.NewRequest(http.MethodPatch, "/notifications/n2/read", nil), alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotificationHandler_MarkAllRead(t *testing.T) {
	svc := new(mockNotificationService)
	svc.On("MarkAllRead", mock.Anything, "u1", "u1").Return(int64(3), nil)
	h := NewNotificationHandler(svc)

	rec := serve(http.MethodPatch, "/notifications/{id}/read-all", h.MarkAllRead, httptest.NewRequest(http.MethodPatch, "/notifications/u1/read-all", nil), alice)

	assert.Equal(t, http.StatusOK, rec.Code)
	var out map[string]int64
	decode(t, rec, &out)
	assert.Equal(t, int64(3), out["updated"])
}

func TestNotificationHandler_Create(t *testing.T) {
	svc := new(mockNotificationService)
	svc.On("Create", mock.Anything, "u1", &models.CreateNotificationRequest{UserID: "u1", Message: "standup at 10", Category: models.CategoryMeeting}).
		Return(&models.Notification{ID: "n5", UserID: "u1"}, nil)
	h := NewNotificationHandler(svc)

	req := jsonRequest(http.MethodPost, "/notifications", map[string]string{"user_id": "u1", "message": "standup at 10", "category": "meeting"})
	rec := serve(http.MethodPost, "/notifications", h.Create, req, alice)

	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestNotificationHandler_CreateForAnotherUserIsForbidden(t *testing.T) {
	svc := new(mockNotificationService)
	svc.On("Create", mock.Anything, "u1", mock.Anything).
		Return(nil, fmt.Errorf("%w: cannot notify another user", pkg.ErrForbidden))
	h := NewNotificationHandler(svc)

	req := jsonRequest(http.MethodPost, "/notifications", map[string]string{"user_id": "u2", "message": "task assigned", "category": "task"})
	rec := serve(http.MethodPost, "/notifications", h.Create, req, alice)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// ─── uploads ───

func TestUploadHandler_Serve(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir, "abc_note.txt"), []byte("hello"), 0644))
	h := NewUploadHandler(store)

	rec := serve(http.MethodGet, "/uploads/{name}", h.Serve, httptest.NewRequest(http.MethodGet, "/uploads/abc_note.txt", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())

	rec = serve(http.MethodGet, "/uploads/{name}", h.Serve, httptest.NewRequest(http.MethodGet, "/uploads/missing.txt", nil), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
