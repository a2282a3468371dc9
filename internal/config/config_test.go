package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.OperationTimeout != 30*time.Second {
		t.Errorf("OperationTimeout = %s, want 30s", cfg.OperationTimeout)
	}
	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("RetryMaxAttempts = %d, want 3", cfg.RetryMaxAttempts)
	}
	if cfg.RetryBaseDelay != 500*time.Millisecond {
		t.Errorf("RetryBaseDelay = %s, want 500ms", cfg.RetryBaseDelay)
	}
	if !cfg.WatchEnabled {
		t.Error("WatchEnabled should default to true")
	}
	if cfg.PollInterval != time.Minute {
		t.Errorf("PollInterval = %s, want 1m", cfg.PollInterval)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("log defaults = %q/%q, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9090")
	t.Setenv("OPERATION_TIMEOUT", "5s")
	t.Setenv("WATCH_ENABLED", "false")
	t.Setenv("POLL_INTERVAL", "15s")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != "127.0.0.1:9090" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.OperationTimeout != 5*time.Second {
		t.Errorf("OperationTimeout = %s", cfg.OperationTimeout)
	}
	if cfg.WatchEnabled {
		t.Error("WatchEnabled should be false")
	}
	if cfg.PollInterval != 15*time.Second {
		t.Errorf("PollInterval = %s", cfg.PollInterval)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q", cfg.LogFormat)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		key, value string
	}{
		{"OPERATION_TIMEOUT", "0s"},
		{"OPERATION_TIMEOUT", "-1s"},
		{"RETRY_MAX_ATTEMPTS", "0"},
		{"POLL_INTERVAL", "0s"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}
