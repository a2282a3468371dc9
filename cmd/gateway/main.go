package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/mailreactor/mailreactor/internal/api"
	"github.com/mailreactor/mailreactor/internal/config"
	"github.com/mailreactor/mailreactor/internal/gateway"
	"github.com/mailreactor/mailreactor/internal/mailconn"
	"github.com/mailreactor/mailreactor/internal/session"
	"github.com/mailreactor/mailreactor/internal/store"
	"github.com/mailreactor/mailreactor/pkg/models"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting mail gateway")

	// Connect to database
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open account store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Create components
	dialer := mailconn.NewDialer(cfg.DialTimeout, logger)
	pool := session.NewPool(dialer.DialIMAP, dialer.DialSMTP, session.RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    cfg.RetryMaxDelay,
	}, logger)
	gw := gateway.New(pool, gateway.Options{
		OperationTimeout: cfg.OperationTimeout,
		PollInterval:     cfg.PollInterval,
		WatchEnabled:     cfg.WatchEnabled,
	}, logger)

	gw.OnMessageReceived(func(ev gateway.Event) {
		logger.Info("new message", "email", ev.Email, "uid", ev.Summary.UID, "subject", ev.Summary.Subject)
	})

	// Re-establish sessions for persisted accounts
	accounts, err := db.ListAccounts(ctx)
	if err != nil {
		logger.Error("failed to list accounts", "error", err)
		os.Exit(1)
	}
	if len(accounts) > 0 {
		logger.Info("restoring accounts", "count", len(accounts))
		restoreAccounts(ctx, gw, accounts, logger)
	}

	srv := api.NewServer(gw, db, logger)

	// Setup graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		logger.Info("received shutdown signal", "signal", sig)
		if err := srv.Shutdown(); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
		gw.Close()
	}()

	if err := srv.Listen(cfg.ListenAddr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("gateway stopped")
}

// restoreAccounts re-registers persisted accounts concurrently. A single
// account's failure is logged and skipped; it must never block the others or
// abort startup.
func restoreAccounts(ctx context.Context, gw *gateway.Gateway, accounts []models.AccountCredentials, logger *slog.Logger) {
	var wg sync.WaitGroup
	for _, account := range accounts {
		wg.Add(1)
		go func(creds models.AccountCredentials) {
			defer wg.Done()
			if err := gw.AddAccount(ctx, creds); err != nil {
				logger.Error("failed to restore account", "email", creds.Email, "error", err)
			}
		}(account)
	}
	wg.Wait()
}

func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		// Pretty colored output for console
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
			NoColor:    false,
		})
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
