// Package config loads the server configuration from environment
// variables. A .env file in the working directory is read first when
// present; real environment variables win over it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config groups every setting of the server, one struct per concern.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Upload    UploadConfig
	Storage   StorageConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string // e.g. ./data/teamverse.db
}

// JWTConfig controls access token signing.
type JWTConfig struct {
	Secret            string // keep it secret
	AccessTokenExpiry int    // minutes
}

// UploadConfig limits message attachments.
type UploadConfig struct {
	Dir     string
	MaxSize int64 // bytes
}

// StorageConfig selects where attachments go: "local" (Upload.Dir) or "s3".
type StorageConfig struct {
	Driver string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string // LocalStack / MinIO; enables path-style addressing
	S3AccessKey string
	S3SecretKey string
	// S3PublicURL prefixes object keys in message file URLs. Empty means
	// https://<bucket>.s3.<region>.amazonaws.com.
	S3PublicURL string
}

// RedisConfig enables the cross-instance room relay when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// RateLimitConfig bounds message creation per user.
type RateLimitConfig struct {
	MessagesPerMinute int
	Burst             int
}

// Load builds a Config from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	accessExpiry, err := strconv.Atoi(getEnv("JWT_ACCESS_EXPIRY_MINUTES", "1440"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRY_MINUTES: %w", err)
	}

	maxSize, err := strconv.ParseInt(getEnv("UPLOAD_MAX_SIZE", "26214400"), 10, 64) // 25MB
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_SIZE: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	perMinute, err := strconv.Atoi(getEnv("RATE_LIMIT_MESSAGES_PER_MINUTE", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_MESSAGES_PER_MINUTE: %w", err)
	}
	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/teamverse.db"),
		},
		JWT: JWTConfig{
			Secret:            jwtSecret,
			AccessTokenExpiry: accessExpiry,
		},
		Upload: UploadConfig{
			Dir:     getEnv("UPLOAD_DIR", "./data/uploads"),
			MaxSize: maxSize,
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
			S3Bucket:    getEnv("S3_BUCKET", ""),
			S3Region:    getEnv("AWS_REGION", "us-east-1"),
			S3Endpoint:  getEnv("AWS_ENDPOINT_URL", ""),
			S3AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
			S3SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3PublicURL: getEnv("S3_PUBLIC_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			Channel:  getEnv("REDIS_CHANNEL", "teamverse:ws:rooms"),
		},
		RateLimit: RateLimitConfig{
			MessagesPerMinute: perMinute,
			Burst:             burst,
		},
	}

	switch cfg.Storage.Driver {
	case "local":
	case "s3":
		if cfg.Storage.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q (want local or s3)", cfg.Storage.Driver)
	}

	return cfg, nil
}

// Addr returns host:port for the HTTP listener.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
