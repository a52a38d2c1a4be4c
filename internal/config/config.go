package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ServerURL        string        `env:"ESCROW_CHAT_WS_URL"`
	APIBaseURL       string        `env:"ESCROW_CHAT_API_URL"`
	CredentialsPath  string        `env:"ESCROW_CHAT_CREDENTIALS"`
	DebugAddr        string        `env:"ESCROW_CHAT_DEBUG_ADDR"`
	ReconnectDelay   time.Duration `env:"ESCROW_CHAT_RECONNECT_DELAY"`
	ReconnectBackoff bool          `env:"ESCROW_CHAT_RECONNECT_BACKOFF"`
}

// Default returns a config populated with built-in defaults overridden
// by any ESCROW_CHAT_* environment variables. Flag values are applied
// on top by the caller.
func Default() (*Config, error) {
	cfg := &Config{
		ServerURL:       "ws://localhost:8080/ws",
		APIBaseURL:      "http://localhost:8000",
		CredentialsPath: defaultCredentialsPath(),
		DebugAddr:       "localhost:8081",
		ReconnectDelay:  3 * time.Second,
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server URL cannot be empty")
	}

	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("parse server URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server URL scheme must be ws or wss, got %q", u.Scheme)
	}

	if c.APIBaseURL == "" {
		return fmt.Errorf("API base URL cannot be empty")
	}
	if c.CredentialsPath == "" {
		return fmt.Errorf("credentials path cannot be empty")
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay must be positive")
	}

	return nil
}
