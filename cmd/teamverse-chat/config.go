package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the CLI configuration, read from YAML.
type Config struct {
	// ServerURL is the REST base, API prefix included.
	ServerURL string `mapstructure:"server_url"`
	// WSURL is the push endpoint.
	WSURL string `mapstructure:"ws_url"`
	// Username pre-fills the login form and keys the stored token.
	Username       string        `mapstructure:"username"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// Project, when set, opens that project's chat on start.
	Project string `mapstructure:"project"`
	Debug   bool   `mapstructure:"debug"`
}

// DefaultConfigPath returns ~/.config/teamverse/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "teamverse", "config.yaml")
}

// LoadConfig reads path. A missing file yields the defaults. TEAMVERSE_*
// environment variables override file values.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("server_url", "http://localhost:9090/api")
	v.SetDefault("ws_url", "ws://localhost:9090/ws")
	v.SetDefault("request_timeout", "15s")
	v.SetDefault("debug", false)

	v.SetEnvPrefix("teamverse")
	v.AutomaticEnv()
	for _, key := range []string{"server_url", "ws_url", "username", "request_timeout", "project", "debug"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("request_timeout must be positive")
	}
	return &cfg, nil
}
