package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength is the rune limit on message text.
const MaxMessageLength = 2000

// Message is a chat message. Content is nil for attachment-only messages.
type Message struct {
	ID         string    `json:"id" db:"id"`
	ChatID     string    `json:"chat_id" db:"chat_id"`
	SenderID   string    `json:"sender_id" db:"sender_id"`
	SenderName string    `json:"sender_name" db:"sender_name"`
	Content    *string   `json:"content" db:"content"`
	FileURL    *string   `json:"file_url,omitempty" db:"file_url"`
	FileName   *string   `json:"file_name,omitempty" db:"file_name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Text returns the content or an empty string.
func (m *Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// CreateMessageRequest is built by the handler from the multipart form.
type CreateMessageRequest struct {
	Content string
	HasFile bool
}

// Validate trims the content and enforces the length limit. A message needs
// text or a file.
func (r *CreateMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)

	if r.Content == "" && !r.HasFile {
		return fmt.Errorf("message must have content or a file")
	}
	if utf8.RuneCountInString(r.Content) > MaxMessageLength {
		return fmt.Errorf("message content must be at most %d characters", MaxMessageLength)
	}
	return nil
}
