// Package storage keeps message attachments either on local disk or in an
// S3-compatible bucket.
package storage

import (
	"context"
	"io"
)

// Store persists one object and returns the URL clients fetch it from.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}
