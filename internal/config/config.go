package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config application configuration
type Config struct {
	// HTTP
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// Database
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/gateway.db"`

	// Sessions
	OperationTimeout time.Duration `env:"OPERATION_TIMEOUT" envDefault:"30s"`
	DialTimeout      time.Duration `env:"DIAL_TIMEOUT" envDefault:"30s"`
	RetryMaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"3"`
	RetryBaseDelay   time.Duration `env:"RETRY_BASE_DELAY" envDefault:"500ms"`
	RetryMaxDelay    time.Duration `env:"RETRY_MAX_DELAY" envDefault:"15s"`

	// Mailbox watching
	WatchEnabled bool          `env:"WATCH_ENABLED" envDefault:"true"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"1m"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.OperationTimeout <= 0 {
		return nil, fmt.Errorf("OPERATION_TIMEOUT must be positive, got %s", cfg.OperationTimeout)
	}
	if cfg.RetryMaxAttempts < 1 {
		return nil, fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}

	return cfg, nil
}
