package services

import (
	"context"
	"time"

	"github.com/Fasilurahman/TeamVerse-sub001/pkg/cache"
)

// MembershipCache answers the hub's room-join checks, remembering
// positive answers for ttl. Negative answers are never cached, so a user
// added to a chat can join immediately. Members are never removed from a
// chat, which keeps positive answers valid.
type MembershipCache struct {
	chats ChatService
	cache *cache.TTLCache[string, struct{}]
}

// NewMembershipCache wraps chats. Call Close when done.
func NewMembershipCache(chats ChatService, ttl time.Duration) *MembershipCache {
	return &MembershipCache{
		chats: chats,
		cache: cache.New[string, struct{}](ttl, ttl),
	}
}

// CanJoin implements ws.RoomAuthorizer.
func (m *MembershipCache) CanJoin(ctx context.Context, userID, room string) (bool, error) {
	key := userID + "|" + room
	if _, ok := m.cache.Get(key); ok {
		return true, nil
	}

	ok, err := m.chats.CanJoin(ctx, userID, room)
	if err != nil || !ok {
		return ok, err
	}
	m.cache.Set(key, struct{}{})
	return true, nil
}

// Close stops the cache's cleanup goroutine.
func (m *MembershipCache) Close() {
	m.cache.Close()
}
