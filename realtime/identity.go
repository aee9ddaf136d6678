package realtime

import (
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
)

// Identity is who the session belongs to, decoded from the access token.
type Identity struct {
	UserID      string
	Username    string
	DisplayName string
	Token       string
}

// Valid reports whether the identity names a user.
func (id Identity) Valid() bool {
	return id.UserID != ""
}

// DecodeIdentity reads the claims of an access token without verifying
// its signature; the server verifies on every request. Malformed, expired
// or claim-less tokens yield ok == false.
func DecodeIdentity(token string) (id Identity, ok bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, false
	}

	claims := &models.TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, false
	}
	if claims.UserID == "" {
		return Identity{}, false
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return Identity{}, false
	}

	name := claims.DisplayName
	if name == "" {
		name = claims.Username
	}
	return Identity{
		UserID:      claims.UserID,
		Username:    claims.Username,
		DisplayName: name,
		Token:       token,
	}, true
}

// Session holds the current identity. Components ask it instead of
// decoding tokens themselves.
type Session struct {
	mu sync.RWMutex
	id Identity
}

// SetToken decodes token and replaces the identity. On failure the
// session is left without identity.
func (s *Session) SetToken(token string) (Identity, bool) {
	id, ok := DecodeIdentity(token)

	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
	return id, ok
}

// Identity returns the current identity, if any.
func (s *Session) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id, s.id.Valid()
}

// Clear drops the identity (logout).
func (s *Session) Clear() {
	s.mu.Lock()
	s.id = Identity{}
	s.mu.Unlock()
}
