// Package store persists account credentials between restarts. The gateway
// core itself holds no durable state; on boot the process reloads accounts
// from here and re-establishes their sessions.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mailreactor/mailreactor/pkg/models"
)

// ErrNotFound is returned when a record is not found
var ErrNotFound = errors.New("record not found")

// Store wraps sqlx.DB
type Store struct {
	*sqlx.DB
}

// Open creates a new database connection
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Connect with WAL mode and foreign keys enabled
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Store{db}, nil
}

// Migrate runs database migrations
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// accountRow is the persisted shape of an account.
type accountRow struct {
	Email     string    `db:"email"`
	Secret    string    `db:"secret"`
	IMAPHost  string    `db:"imap_host"`
	IMAPPort  int       `db:"imap_port"`
	IMAPTLS   string    `db:"imap_tls"`
	SMTPHost  string    `db:"smtp_host"`
	SMTPPort  int       `db:"smtp_port"`
	SMTPTLS   string    `db:"smtp_tls"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r accountRow) toModel() models.AccountCredentials {
	return models.AccountCredentials{
		Email:  r.Email,
		Secret: r.Secret,
		Profile: models.ProviderProfile{
			IMAP: models.Endpoint{Host: r.IMAPHost, Port: r.IMAPPort, TLS: models.TLSMode(r.IMAPTLS)},
			SMTP: models.Endpoint{Host: r.SMTPHost, Port: r.SMTPPort, TLS: models.TLSMode(r.SMTPTLS)},
		},
	}
}

// SaveAccount persists an account. Saving an existing email overwrites its
// secret and profile so the stored record always matches the live session.
// The secret is stored as supplied; encryption at rest is the caller's
// concern.
func (s *Store) SaveAccount(ctx context.Context, creds models.AccountCredentials) error {
	query := `
		INSERT INTO accounts (email, secret, imap_host, imap_port, imap_tls, smtp_host, smtp_port, smtp_tls, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			secret = excluded.secret,
			imap_host = excluded.imap_host,
			imap_port = excluded.imap_port,
			imap_tls = excluded.imap_tls,
			smtp_host = excluded.smtp_host,
			smtp_port = excluded.smtp_port,
			smtp_tls = excluded.smtp_tls,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	_, err := s.ExecContext(ctx, query,
		creds.Email,
		creds.Secret,
		creds.Profile.IMAP.Host,
		creds.Profile.IMAP.Port,
		string(creds.Profile.IMAP.TLS),
		creds.Profile.SMTP.Host,
		creds.Profile.SMTP.Port,
		string(creds.Profile.SMTP.TLS),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// GetAccount returns the account with the given email.
func (s *Store) GetAccount(ctx context.Context, email string) (models.AccountCredentials, error) {
	var row accountRow
	err := s.GetContext(ctx, &row, `SELECT * FROM accounts WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AccountCredentials{}, ErrNotFound
	}
	if err != nil {
		return models.AccountCredentials{}, fmt.Errorf("failed to get account: %w", err)
	}
	return row.toModel(), nil
}

// ListAccounts returns all persisted accounts.
func (s *Store) ListAccounts(ctx context.Context) ([]models.AccountCredentials, error) {
	var rows []accountRow
	err := s.SelectContext(ctx, &rows, `SELECT * FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	accounts := make([]models.AccountCredentials, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, row.toModel())
	}
	return accounts, nil
}

// UpdateSecret rotates a persisted account's secret.
func (s *Store) UpdateSecret(ctx context.Context, email, secret string) error {
	res, err := s.ExecContext(ctx,
		`UPDATE accounts SET secret = ?, updated_at = ? WHERE email = ?`,
		secret, time.Now(), email)
	if err != nil {
		return fmt.Errorf("failed to update secret: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAccount removes a persisted account. Deleting an unknown account is
// not an error.
func (s *Store) DeleteAccount(ctx context.Context, email string) error {
	if _, err := s.ExecContext(ctx, `DELETE FROM accounts WHERE email = ?`, email); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
