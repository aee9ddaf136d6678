package models

import "time"

// NotificationCategory is one of a small fixed set.
type NotificationCategory string

const (
	CategoryMessage NotificationCategory = "message"
	CategoryTask    NotificationCategory = "task"
	CategoryProject NotificationCategory = "project"
	CategoryMeeting NotificationCategory = "meeting"
	CategorySystem  NotificationCategory = "system"
)

// Valid reports whether c is a known category.
func (c NotificationCategory) Valid() bool {
	switch c {
	case CategoryMessage, CategoryTask, CategoryProject, CategoryMeeting, CategorySystem:
		return true
	}
	return false
}

// Notification is addressed to one user. Read only ever goes false -> true.
type Notification struct {
	ID        string               `json:"id" db:"id"`
	UserID    string               `json:"user_id" db:"user_id"`
	Message   string               `json:"message" db:"message"`
	Category  NotificationCategory `json:"category" db:"category"`
	Read      bool                 `json:"read" db:"is_read"`
	CreatedAt time.Time            `json:"created_at" db:"created_at"`
}

// CreateNotificationRequest is the body of POST /api/notifications.
type CreateNotificationRequest struct {
	UserID   string               `json:"user_id" validate:"required"`
	Message  string               `json:"message" validate:"required,max=500"`
	Category NotificationCategory `json:"category" validate:"required,oneof=message task project meeting system"`
}
