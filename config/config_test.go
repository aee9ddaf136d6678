package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, int64(26214400), cfg.Upload.MaxSize)
	assert.Equal(t, 1440, cfg.JWT.AccessTokenExpiry)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 30, cfg.RateLimit.MessagesPerMinute)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("STORAGE_DRIVER", "S3")
	t.Setenv("S3_BUCKET", "attachments")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.Equal(t, "attachments", cfg.Storage.S3Bucket)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"bad port", map[string]string{"JWT_SECRET": "s", "SERVER_PORT": "http"}},
		{"bad driver", map[string]string{"JWT_SECRET": "s", "STORAGE_DRIVER": "ftp"}},
		{"s3 without bucket", map[string]string{"JWT_SECRET": "s", "STORAGE_DRIVER": "s3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
