package session

import (
	"context"
	"io"

	"github.com/emersion/go-imap"

	"github.com/mailreactor/mailreactor/pkg/models"
)

// Conn is one live, authenticated IMAP connection. Implementations are not
// safe for concurrent use; the pool guarantees at most one in-flight
// operation per connection.
type Conn interface {
	// Select makes folder the current mailbox for subsequent commands.
	Select(folder string) error
	// UIDSearch runs UID SEARCH and returns matching UIDs in server order.
	UIDSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	// UIDFetch runs UID FETCH for the given set and returns messages in the
	// order the server sent them.
	UIDFetch(set *imap.SeqSet, items []imap.FetchItem) ([]*imap.Message, error)
	// Logout closes the connection gracefully.
	Logout() error
}

// SendConn is one outbound SMTP submission connection. Opened per send and
// closed right after; SMTP has no long-lived state worth keeping.
type SendConn interface {
	// Send submits one message. Success means the server accepted it for
	// delivery, not confirmed final delivery.
	Send(from string, to []string, msg io.Reader) error
	Close() error
}

// DialFunc establishes and authenticates an IMAP connection for an account.
// Authentication rejections must come back as GatewayError with
// KindAuthentication so the pool knows not to retry them.
type DialFunc func(ctx context.Context, creds models.AccountCredentials) (Conn, error)

// SendDialFunc establishes and authenticates an SMTP connection for an
// account.
type SendDialFunc func(ctx context.Context, creds models.AccountCredentials) (SendConn, error)
