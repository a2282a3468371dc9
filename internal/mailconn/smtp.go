package mailconn

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/mailreactor/mailreactor/internal/session"
	"github.com/mailreactor/mailreactor/pkg/models"
)

// DialSMTP connects and authenticates an outbound submission connection for
// the account. Implements session.SendDialFunc.
func (d *Dialer) DialSMTP(ctx context.Context, creds models.AccountCredentials) (session.SendConn, error) {
	ep := creds.Profile.SMTP
	d.Logger.Debug("connecting to SMTP server", "email", creds.Email, "server", ep.Addr())

	var (
		c   *smtp.Client
		err error
	)
	switch ep.TLS {
	case models.TLSImplicit:
		c, err = smtp.DialTLS(ep.Addr(), &tls.Config{ServerName: ep.Host})
	case models.TLSStartTLS:
		c, err = smtp.DialStartTLS(ep.Addr(), &tls.Config{ServerName: ep.Host})
	default:
		c, err = smtp.Dial(ep.Addr())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := c.Auth(sasl.NewPlainClient("", creds.Email, creds.Secret)); err != nil {
		c.Close()
		var smtpErr *smtp.SMTPError
		if errors.As(err, &smtpErr) && (smtpErr.Code == 535 || smtpErr.Code == 530) {
			return nil, models.Errf(models.KindAuthentication, creds.Email, "submission rejected: %v", smtpErr.Message)
		}
		return nil, fmt.Errorf("smtp auth failed: %w", err)
	}

	return &smtpConn{c: c}, nil
}

// smtpConn adapts a go-smtp client to session.SendConn.
type smtpConn struct {
	c *smtp.Client
}

func (sc *smtpConn) Send(from string, to []string, msg io.Reader) error {
	if err := sc.c.SendMail(from, to, msg); err != nil {
		return fmt.Errorf("failed to send: %w", err)
	}
	return nil
}

func (sc *smtpConn) Close() error {
	return sc.c.Quit()
}
