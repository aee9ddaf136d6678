package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Fasilurahman/TeamVerse-sub001/pkg"
	"github.com/Fasilurahman/TeamVerse-sub001/storage"
)

// UploadInput is one attachment as received from the client.
type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// UploadedFile is where a stored attachment can be fetched.
type UploadedFile struct {
	URL  string
	Name string
}

// UploadService validates attachments and hands them to a storage.Store.
type UploadService interface {
	Upload(ctx context.Context, in UploadInput) (*UploadedFile, error)
}

type uploadService struct {
	store   storage.Store
	maxSize int64
}

// NewUploadService creates the service. Files larger than maxSize bytes
// are rejected.
func NewUploadService(store storage.Store, maxSize int64) UploadService {
	return &uploadService{store: store, maxSize: maxSize}
}

// allowedMimeTypes is checked against the declared type, or the sniffed
// one when the client declares none.
var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"video/webm":      true,
	"audio/mpeg":      true,
	"audio/ogg":       true,
	"application/pdf": true,
	"application/zip": true,
	"text/plain":      true,
	"text/csv":        true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
}

// Upload checks size and type, then stores the file under a random
// prefix so names never collide.
func (s *uploadService) Upload(ctx context.Context, in UploadInput) (*UploadedFile, error) {
	if in.Size > s.maxSize {
		return nil, fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrBadRequest, s.maxSize/(1024*1024))
	}

	reader := io.LimitReader(in.Reader, s.maxSize+1)
	contentType := mimeBase(in.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		// sniff what the client did not declare
		head := make([]byte, 512)
		n, err := io.ReadFull(reader, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		contentType = mimeBase(http.DetectContentType(head[:n]))
		reader = io.MultiReader(bytes.NewReader(head[:n]), reader)
	}
	if !allowedMimeTypes[contentType] {
		return nil, fmt.Errorf("%w: file type not allowed: %s", pkg.ErrBadRequest, contentType)
	}

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random filename: %w", err)
	}
	name := sanitizeFilename(in.Filename)
	key := hex.EncodeToString(randomBytes) + "_" + name

	url, err := s.store.Save(ctx, key, reader, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	return &UploadedFile{URL: url, Name: name}, nil
}

// mimeBase drops parameters such as charset.
func mimeBase(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// sanitizeFilename strips directories and separators so the name is safe
// to use as a storage key suffix.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '\x00' {
			return -1
		}
		return r
	}, name)

	if name == "" || name == "." || name == ".." {
		name = "unnamed"
	}
	return name
}
