// Package id generates identifiers for persisted rows.
package id

import (
	"crypto/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewSortable returns a ULID string. ULIDs sort lexicographically by
// creation time, and ids minted in the same millisecond still increase,
// so history can be paged by id.
func NewSortable() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// New returns a random UUIDv4 string.
func New() string {
	return uuid.NewString()
}
