// Package credential keeps the CLI's access token in the OS keyring.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "teamverse"

// ErrNoToken means nothing is stored for the user.
var ErrNoToken = errors.New("no stored token")

// Store reads and writes access tokens keyed by username.
type Store struct {
	ring keyring.Keyring
}

// Open opens the platform keyring, falling back to an encrypted file
// under ~/.config/teamverse/credentials.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/teamverse/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("teamverse-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewStore(ring), nil
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

func tokenKey(username string) string {
	return "token:" + username
}

// Token returns the stored access token for username.
func (s *Store) Token(username string) (string, error) {
	item, err := s.ring.Get(tokenKey(username))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("getting token for %q: %w", username, err)
	}
	return string(item.Data), nil
}

// SaveToken stores token for username, replacing any previous one.
func (s *Store) SaveToken(username, token string) error {
	err := s.ring.Set(keyring.Item{
		Key:   tokenKey(username),
		Data:  []byte(token),
		Label: "TeamVerse access token",
	})
	if err != nil {
		return fmt.Errorf("setting token for %q: %w", username, err)
	}
	return nil
}

// DeleteToken forgets username's token. Deleting a missing token is not
// an error.
func (s *Store) DeleteToken(username string) error {
	err := s.ring.Remove(tokenKey(username))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting token for %q: %w", username, err)
	}
	return nil
}
