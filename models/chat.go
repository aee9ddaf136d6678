package models

import (
	"strings"
	"time"
)

// ChatKind distinguishes group rooms from one-to-one conversations.
type ChatKind string

const (
	ChatKindGroup  ChatKind = "group"
	ChatKindDirect ChatKind = "direct"
)

// personalPrefix marks the per-user notification channel.
const personalPrefix = "user:"

// PersonalChannel returns the push channel carrying userID's notifications.
func PersonalChannel(userID string) string {
	return personalPrefix + userID
}

// PersonalChannelOwner returns the user ID behind a personal channel name.
func PersonalChannelOwner(channel string) (string, bool) {
	owner, ok := strings.CutPrefix(channel, personalPrefix)
	if !ok || owner == "" {
		return "", false
	}
	return owner, true
}

// Chat is a chat room. Its ID doubles as the push channel name.
type Chat struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Kind      ChatKind  `json:"kind" db:"kind"`
	ProjectID *string   `json:"project_id,omitempty" db:"project_id"`
	Members   []string  `json:"members" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateChatRequest creates a group or direct chat. The caller is always
// added to Members by the service.
type CreateChatRequest struct {
	Name    string   `json:"name" validate:"max=100"`
	Kind    ChatKind `json:"kind" validate:"required,oneof=group direct"`
	Members []string `json:"members" validate:"required,min=1,dive,required"`
}
