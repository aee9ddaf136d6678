package realtime

import (
	"context"
	"fmt"
)

// NotificationMarker is the REST side of read state.
type NotificationMarker interface {
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
}

// ReadState marks notifications read. Local flags flip only after the
// server confirms; a failed call leaves state untouched.
type ReadState struct {
	api     NotificationMarker
	state   *State
	session *Session
}

// NewReadState creates a synchronizer.
func NewReadState(api NotificationMarker, state *State, session *Session) *ReadState {
	return &ReadState{api: api, state: state, session: session}
}

// MarkRead marks one notification read. Already-read notifications are a
// no-op without a network call.
func (r *ReadState) MarkRead(ctx context.Context, id string) error {
	if _, ok := r.session.Identity(); !ok {
		return ErrNoSession
	}
	if n, ok := r.state.Notification(id); ok && n.Read {
		return nil
	}

	if err := r.api.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	r.state.markRead(id)
	return nil
}

// MarkAllRead marks every notification of userID read, then flips every
// loaded notification locally. An empty userID means the session user.
func (r *ReadState) MarkAllRead(ctx context.Context, userID string) error {
	id, ok := r.session.Identity()
	if !ok {
		return ErrNoSession
	}
	if userID == "" {
		userID = id.UserID
	}

	if err := r.api.MarkAllNotificationsRead(ctx, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	r.state.markAllRead()
	return nil
}
