package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fasilurahman/TeamVerse-sub001/config"
)

func TestLocalStore_SaveAndPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "abc_notes.txt", bytes.NewReader([]byte("hello")), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "/api/uploads/abc_notes.txt", url)

	data, err := os.ReadFile(filepath.Join(dir, "abc_notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", ".", "..", "../etc/passwd", `a\b`, "a/b"} {
		_, err := store.Path(key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestS3Store_PutsObject(t *testing.T) {
	type put struct {
		method, path, contentType string
		body                      []byte
	}
	got := make(chan put, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- put{r.Method, r.URL.Path, r.Header.Get("Content-Type"), body}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewS3Client(context.Background(), config.StorageConfig{
		S3Region:    "us-east-1",
		S3Endpoint:  srv.URL,
		S3AccessKey: "test",
		S3SecretKey: "test",
	})
	require.NoError(t, err)

	store := NewS3Store(client, "attachments", "us-east-1", "https://cdn.example.com/")
	url, err := store.Save(context.Background(), "k1_photo.png", bytes.NewReader([]byte("png")), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/k1_photo.png", url)

	p := <-got
	assert.Equal(t, http.MethodPut, p.method)
	assert.Equal(t, "/attachments/k1_photo.png", p.path)
	assert.Equal(t, "image/png", p.contentType)
	assert.Equal(t, "png", string(p.body))
}

func TestNewS3Store_DefaultURL(t *testing.T) {
	store := NewS3Store(nil, "b", "eu-west-1", "")
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com", store.publicURL)
}
