package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	s := NewStore(keyring.NewArrayKeyring(nil))

	_, err := s.Token("alice")
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.SaveToken("alice", "tok-1"))
	require.NoError(t, s.SaveToken("alice", "tok-2"))

	token, err := s.Token("alice")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)

	_, err = s.Token("bob")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestStore_DeleteToken(t *testing.T) {
	s := NewStore(keyring.NewArrayKeyring(nil))
	require.NoError(t, s.SaveToken("alice", "tok"))

	require.NoError(t, s.DeleteToken("alice"))
	_, err := s.Token("alice")
	assert.ErrorIs(t, err, ErrNoToken)

	assert.NoError(t, s.DeleteToken("alice"))
}
