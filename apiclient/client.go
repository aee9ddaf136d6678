// Package apiclient talks to the TeamVerse REST backend: login, chats,
// message history and creation, and notification read state.
//
// Every response is the {success, data, error} envelope written by the
// server's pkg.JSON helpers.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
)

// DefaultTimeout bounds each call, retries included.
const DefaultTimeout = 15 * time.Second

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d) on %s %s: %s", e.StatusCode, e.Method, e.Path, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// File is an attachment staged for upload. Data stays in memory so a
// failed send can be retried with the same value.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int

	mu    sync.RWMutex
	token string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-call timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client. baseURL includes the API prefix, for example
// http://localhost:9090/api.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// body produces a fresh request body per attempt plus its content type.
type body func() (io.Reader, string, error)

func jsonBody(v any) body {
	return func() (io.Reader, string, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("marshaling request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func (c *Client) do(ctx context.Context, method, path string, b body, result any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var reader io.Reader
		var contentType string
		if b != nil {
			var err error
			reader, contentType, err = b()
			if err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if token := c.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = &APIError{StatusCode: resp.StatusCode, Method: method, Path: path, Message: errorMessage(respBody)}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryAfterDuration(resp, attempt)):
				continue
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode, Method: method, Path: path, Message: errorMessage(respBody)}
		}

		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		var env envelope
		if err := json.Unmarshal(respBody, &env); err != nil {
			return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
		}
		if !env.Success {
			return &APIError{StatusCode: resp.StatusCode, Method: method, Path: path, Message: env.Error}
		}
		if len(env.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("unmarshaling data from %s %s: %w", method, path, err)
		}
		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

func errorMessage(respBody []byte) string {
	var env envelope
	if json.Unmarshal(respBody, &env) == nil && env.Error != "" {
		return env.Error
	}
	return strings.TrimSpace(string(respBody))
}

// retryAfterDuration honours Retry-After, else backs off 1s, 2s, 4s... up
// to 30s.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

// ─── Auth ───

// Login exchanges credentials for an access token and stores it on c.
func (c *Client) Login(ctx context.Context, username, password string) (*models.AuthTokens, error) {
	var tokens models.AuthTokens
	err := c.do(ctx, http.MethodPost, "/auth/login",
		jsonBody(models.LoginRequest{Username: username, Password: password}), &tokens)
	if err != nil {
		return nil, err
	}
	c.SetToken(tokens.AccessToken)
	return &tokens, nil
}

// ─── Notifications ───

// ListNotifications returns userID's unread notifications, newest first.
func (c *Client) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	var list []models.Notification
	if err := c.do(ctx, http.MethodGet, "/notifications/"+url.PathEscape(userID), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// MarkNotificationRead marks one notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/read", nil, &struct{}{})
}

// MarkAllNotificationsRead marks every notification of userID read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPatch, "/notifications/"+url.PathEscape(userID)+"/read-all", nil, &struct{}{})
}

// ─── Chats ───

// ListUserChats returns the chats userID belongs to.
func (c *Client) ListUserChats(ctx context.Context, userID string) ([]models.Chat, error) {
	var chats []models.Chat
	if err := c.do(ctx, http.MethodGet, "/chats/user/"+url.PathEscape(userID), nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// ProjectChat resolves, creating on first use, the chat of a project.
func (c *Client) ProjectChat(ctx context.Context, projectID string) (*models.Chat, error) {
	var chat models.Chat
	if err := c.do(ctx, http.MethodGet, "/chats/project/"+url.PathEscape(projectID), nil, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// ─── Messages ───

// ListMessages returns the message history of chatID, oldest first.
func (c *Client) ListMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	var msgs []models.Message
	if err := c.do(ctx, http.MethodGet, "/chats/"+url.PathEscape(chatID)+"/messages", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// CreateMessage posts a multipart message with form fields "content" and
// "file" and returns the stored message.
func (c *Client) CreateMessage(ctx context.Context, chatID, content string, file *File) (*models.Message, error) {
	var msg models.Message
	err := c.do(ctx, http.MethodPost, "/chats/"+url.PathEscape(chatID)+"/messages", multipartBody(content, file), &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

const defaultFileName = "attachment"

func multipartBody(content string, file *File) body {
	return func() (io.Reader, string, error) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)

		if err := w.WriteField("content", content); err != nil {
			return nil, "", fmt.Errorf("writing content field: %w", err)
		}

		if file != nil {
			// a part without a filename is parsed as a plain form value
			name := file.Name
			if name == "" {
				name = defaultFileName
			}
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(name)))
			ct := file.ContentType
			if ct == "" {
				ct = "application/octet-stream"
			}
			h.Set("Content-Type", ct)

			part, err := w.CreatePart(h)
			if err != nil {
				return nil, "", fmt.Errorf("creating file part: %w", err)
			}
			if _, err := part.Write(file.Data); err != nil {
				return nil, "", fmt.Errorf("writing file part: %w", err)
			}
		}

		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("closing multipart writer: %w", err)
		}
		return &buf, w.FormDataContentType(), nil
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
