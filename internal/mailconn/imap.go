// Package mailconn implements the session pool's connection contracts over
// real IMAP and SMTP servers.
package mailconn

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/mailreactor/mailreactor/internal/session"
	"github.com/mailreactor/mailreactor/pkg/models"
)

// Dialer establishes authenticated protocol connections for accounts.
type Dialer struct {
	DialTimeout time.Duration
	Logger      *slog.Logger
}

// NewDialer creates a dialer with the given connect timeout.
func NewDialer(dialTimeout time.Duration, logger *slog.Logger) *Dialer {
	if dialTimeout == 0 {
		dialTimeout = 30 * time.Second
	}
	return &Dialer{DialTimeout: dialTimeout, Logger: logger.With("component", "mailconn")}
}

// DialIMAP connects and authenticates an IMAP session for the account.
// Implements session.DialFunc.
func (d *Dialer) DialIMAP(ctx context.Context, creds models.AccountCredentials) (session.Conn, error) {
	ep := creds.Profile.IMAP
	d.Logger.Info("connecting to IMAP server", "email", creds.Email, "server", ep.Addr())

	timeout := d.DialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}
	dialer := &net.Dialer{Timeout: timeout}

	var (
		c   *client.Client
		err error
	)
	switch ep.TLS {
	case models.TLSImplicit:
		var conn *tls.Conn
		conn, err = tls.DialWithDialer(dialer, "tcp", ep.Addr(), &tls.Config{ServerName: ep.Host})
		if err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
		c, err = client.New(conn)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create IMAP client: %w", err)
		}
	default:
		var conn net.Conn
		conn, err = dialer.DialContext(ctx, "tcp", ep.Addr())
		if err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
		c, err = client.New(conn)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create IMAP client: %w", err)
		}
		if ep.TLS == models.TLSStartTLS {
			if err = c.StartTLS(&tls.Config{ServerName: ep.Host}); err != nil {
				c.Terminate()
				return nil, fmt.Errorf("starttls failed: %w", err)
			}
		}
	}

	if err := c.Login(creds.Email, creds.Secret); err != nil {
		c.Logout()
		return nil, models.Errf(models.KindAuthentication, creds.Email, "login rejected: %v", err)
	}

	d.Logger.Info("connected to IMAP server", "email", creds.Email)
	return &imapConn{c: c}, nil
}

// imapConn adapts a go-imap client to session.Conn. The pool serializes
// access, so no locking here.
type imapConn struct {
	c *client.Client
}

func (ic *imapConn) Select(folder string) error {
	if _, err := ic.c.Select(folder, false); err != nil {
		return fmt.Errorf("failed to select %s: %w", folder, err)
	}
	return nil
}

func (ic *imapConn) UIDSearch(criteria *imap.SearchCriteria) ([]uint32, error) {
	uids, err := ic.c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	return uids, nil
}

func (ic *imapConn) UIDFetch(set *imap.SeqSet, items []imap.FetchItem) ([]*imap.Message, error) {
	ch := make(chan *imap.Message, 100)
	done := make(chan error, 1)

	go func() {
		done <- ic.c.UidFetch(set, items, ch)
	}()

	var msgs []*imap.Message
	for msg := range ch {
		msgs = append(msgs, msg)
	}
	if err := <-done; err != nil {
		return msgs, fmt.Errorf("failed to fetch: %w", err)
	}
	return msgs, nil
}

func (ic *imapConn) Logout() error {
	// Logout can hang on a wedged connection; force close if it does.
	done := make(chan error, 1)
	go func() {
		done <- ic.c.Logout()
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		return ic.c.Terminate()
	}
}
