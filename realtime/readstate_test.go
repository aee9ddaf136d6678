package realtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
)

func newReadState(t *testing.T, api *mockAPI) (*ReadState, *State) {
	t.Helper()
	session := &Session{}
	_, ok := session.SetToken(makeToken(t, "u1", "ada"))
	require.True(t, ok)

	state := NewState()
	NewDispatcher(state).LoadNotifications([]models.Notification{
		{ID: "n1", UserID: "u1"},
		{ID: "n2", UserID: "u1"},
		{ID: "n3", UserID: "u1"},
	})
	return NewReadState(api, state, session), state
}

func TestReadState_MarkRead(t *testing.T) {
	api := new(mockAPI)
	rs, state := newReadState(t, api)
	api.On("MarkNotificationRead", mock.Anything, "n2").Return(nil).Once()

	require.NoError(t, rs.MarkRead(context.Background(), "n2"))
	n2, _ := state.Notification("n2")
	assert.True(t, n2.Read)
	assert.Len(t, state.Unread(), 2)

	// already read: no second request
	require.NoError(t, rs.MarkRead(context.Background(), "n2"))
	api.AssertNumberOfCalls(t, "MarkNotificationRead", 1)
}

func TestReadState_FailureLeavesStateUntouched(t *testing.T) {
	api := new(mockAPI)
	rs, state := newReadState(t, api)
	boom := errors.New("boom")
	api.On("MarkNotificationRead", mock.Anything, "n1").Return(boom).Once()
	api.On("MarkAllNotificationsRead", mock.Anything, "u1").Return(boom).Once()

	assert.ErrorIs(t, rs.MarkRead(context.Background(), "n1"), boom)
	assert.ErrorIs(t, rs.MarkAllRead(context.Background(), ""), boom)
	assert.Len(t, state.Unread(), 3)
}

func TestReadState_MarkAllRead(t *testing.T) {
	api := new(mockAPI)
	rs, state := newReadState(t, api)
	api.On("MarkAllNotificationsRead", mock.Anything, "u1").Return(nil).Once()

	require.NoError(t, rs.MarkAllRead(context.Background(), "u1"))
	assert.Empty(t, state.Unread())
	for _, n := range state.Notifications() {
		assert.True(t, n.Read)
	}
	api.AssertExpectations(t)
}

func TestReadState_ReadNeverFlipsBack(t *testing.T) {
	api := new(mockAPI)
	rs, state := newReadState(t, api)
	api.On("MarkNotificationRead", mock.Anything, "n1").Return(nil).Once()
	require.NoError(t, rs.MarkRead(context.Background(), "n1"))

	d := NewDispatcher(state)
	// a stale unread copy from the server or the push channel
	d.LoadNotifications([]models.Notification{{ID: "n1", UserID: "u1", Read: false}})
	assert.False(t, d.Dispatch(notificationEvent(models.Notification{ID: "n1", UserID: "u1"})))

	n1, ok := state.Notification("n1")
	require.True(t, ok)
	assert.True(t, n1.Read)
}

func TestReadState_RequiresSession(t *testing.T) {
	api := new(mockAPI)
	rs := NewReadState(api, NewState(), &Session{})

	assert.ErrorIs(t, rs.MarkRead(context.Background(), "n1"), ErrNoSession)
	assert.ErrorIs(t, rs.MarkAllRead(context.Background(), ""), ErrNoSession)
	api.AssertNotCalled(t, "MarkNotificationRead", mock.Anything, mock.Anything)
}
