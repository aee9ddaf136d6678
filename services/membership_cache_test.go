package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMembershipCache_RemembersMembers(t *testing.T) {
	chats := new(mockChatRepo)
	cache := NewMembershipCache(NewChatService(chats, new(mockUserRepo)), time.Minute)
	defer cache.Close()

	chats.On("IsMember", mock.Anything, "c1", "u1").Return(true, nil).Once()

	for i := 0; i < 3; i++ {
		ok, err := cache.CanJoin(context.Background(), "u1", "c1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	chats.AssertNumberOfCalls(t, "IsMember", 1)
}

func TestMembershipCache_DoesNotRememberRefusals(t *testing.T) {
	chats := new(mockChatRepo)
	cache := NewMembershipCache(NewChatService(chats, new(mockUserRepo)), time.Minute)
	defer cache.Close()

	chats.On("IsMember", mock.Anything, "c1", "u2").Return(false, nil).Once()
	chats.On("IsMember", mock.Anything, "c1", "u2").Return(false, errors.New("db down")).Once()
	chats.On("IsMember", mock.Anything, "c1", "u2").Return(true, nil).Once()

	ok, err := cache.CanJoin(context.Background(), "u2", "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = cache.CanJoin(context.Background(), "u2", "c1")
	assert.Error(t, err)

	// added to the chat in the meantime
	ok, err = cache.CanJoin(context.Background(), "u2", "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	chats.AssertNumberOfCalls(t, "IsMember", 3)
}
