// Package gateway is the single entry point consumed by the REST layer. It
// exposes account lifecycle and message operations, enforces per-operation
// timeouts, and funnels every failure through the error classifier before it
// reaches a caller.
package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mailreactor/mailreactor/internal/provider"
	"github.com/mailreactor/mailreactor/internal/session"
	"github.com/mailreactor/mailreactor/internal/translate"
	"github.com/mailreactor/mailreactor/pkg/models"
)

// Options tune gateway behavior.
type Options struct {
	// OperationTimeout bounds every facade operation. Expiry invalidates the
	// session on the assumption that its connection is wedged.
	OperationTimeout time.Duration
	// PollInterval is how often watched mailboxes are checked for new mail.
	PollInterval time.Duration
	// WatchEnabled starts a mailbox watcher for each registered account.
	WatchEnabled bool
}

// Gateway multiplexes REST requests onto per-account protocol sessions.
type Gateway struct {
	pool   *session.Pool
	opts   Options
	events *Emitter
	logger *slog.Logger

	mu       sync.Mutex
	watchers map[string]*watcher
}

// New creates a gateway on top of a session pool.
func New(pool *session.Pool, opts Options, logger *slog.Logger) *Gateway {
	if opts.OperationTimeout <= 0 {
		opts.OperationTimeout = 30 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Minute
	}
	return &Gateway{
		pool:     pool,
		opts:     opts,
		events:   NewEmitter(logger),
		logger:   logger.With("component", "gateway"),
		watchers: make(map[string]*watcher),
	}
}

// OnMessageReceived registers a handler for new-mail events from watched
// mailboxes.
func (g *Gateway) OnMessageReceived(h Handler) {
	g.events.On(EventMessageReceived, h)
}

// OnMessageSent registers a handler for sent-message events.
func (g *Gateway) OnMessageSent(h Handler) {
	g.events.On(EventMessageSent, h)
}

// AddAccount resolves the provider profile if not explicit, validates the
// credentials by establishing a session, and registers the account. On any
// failure the account is not registered.
func (g *Gateway) AddAccount(ctx context.Context, creds models.AccountCredentials) error {
	if creds.Domain() == "" {
		return models.Errf(models.KindConfiguration, creds.Email, "invalid email address")
	}
	if creds.Secret == "" {
		return models.Errf(models.KindConfiguration, creds.Email, "secret is required")
	}

	if creds.Profile.IsZero() {
		profile, ok := provider.Resolve(creds.Email)
		if !ok {
			return models.Errf(models.KindConfiguration, creds.Email,
				"unknown provider %q: explicit server settings required", creds.Domain())
		}
		creds.Profile = profile
	}
	if err := provider.Validate(creds.Profile); err != nil {
		return Classify(creds.Email, err)
	}

	g.pool.Add(creds)

	// Immediate auth check: acquiring forces handshake and login.
	opCtx, cancel := context.WithTimeout(ctx, g.opts.OperationTimeout)
	defer cancel()
	h, err := g.pool.Acquire(opCtx, creds.Email)
	if err != nil {
		g.pool.Remove(creds.Email)
		return Classify(creds.Email, err)
	}
	g.pool.Release(h)

	if g.opts.WatchEnabled {
		g.startWatcher(creds.Email)
	}
	g.logger.Info("account registered", "account", creds)
	return nil
}

// RemoveAccount closes the account's session and deletes it. Idempotent;
// removing an unknown account is not an error.
func (g *Gateway) RemoveAccount(ctx context.Context, email string) error {
	g.stopWatcher(email)
	g.pool.Remove(email)
	return nil
}

// UpdateSecret rotates the account's secret. The current connection is
// dropped so the next operation authenticates with the new secret.
func (g *Gateway) UpdateSecret(ctx context.Context, email, secret string) error {
	if secret == "" {
		return models.Errf(models.KindConfiguration, email, "secret is required")
	}
	if err := g.pool.UpdateSecret(email, secret); err != nil {
		return Classify(email, err)
	}
	return nil
}

// ListMessages returns summaries matching the query, in the order the server
// returned them.
func (g *Gateway) ListMessages(ctx context.Context, email string, q models.MessageQuery) ([]models.MessageSummary, error) {
	var summaries []models.MessageSummary
	err := g.withSession(ctx, email, func(h *session.Handle) error {
		var err error
		summaries, err = translate.ListMessages(h, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// FetchMessage returns the full content of one message.
func (g *Gateway) FetchMessage(ctx context.Context, email, folder string, uid uint32) (*models.MessageBody, error) {
	var body *models.MessageBody
	err := g.withSession(ctx, email, func(h *session.Handle) error {
		var err error
		body, err = translate.FetchBody(h, folder, uid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// SendMessage submits a composed message through a per-send outbound
// connection and returns the generated Message-ID once the server accepts it.
func (g *Gateway) SendMessage(ctx context.Context, email string, msg models.ComposedMessage) (string, error) {
	var messageID string
	err := g.withSession(ctx, email, func(h *session.Handle) error {
		conn, err := g.pool.DialSend(ctx, email)
		if err != nil {
			return err
		}
		defer conn.Close()
		messageID, err = translate.SendMessage(conn, email, msg)
		return err
	})
	if err != nil {
		return "", err
	}

	g.events.Emit(Event{
		Type:      EventMessageSent,
		Email:     email,
		Time:      time.Now(),
		MessageID: messageID,
	})
	g.logger.Info("message sent", "email", email, "message_id", messageID)
	return messageID, nil
}

// Status reports the session state for an account.
func (g *Gateway) Status(email string) (string, bool) {
	state, ok := g.pool.Status(email)
	if !ok {
		return "", false
	}
	return state.String(), true
}

// Close stops all watchers and tears down every session.
func (g *Gateway) Close() {
	g.mu.Lock()
	for email, w := range g.watchers {
		w.cancel()
		delete(g.watchers, email)
	}
	g.mu.Unlock()
	g.pool.Close()
}

// withSession runs fn with exclusive access to the account's session,
// applying the per-operation timeout. On timeout the session is invalidated
// rather than left Busy; on protocol-level failure the error is classified
// before returning and broken connections are discarded.
func (g *Gateway) withSession(ctx context.Context, email string, fn func(h *session.Handle) error) error {
	opCtx, cancel := context.WithTimeout(ctx, g.opts.OperationTimeout)
	defer cancel()

	h, err := g.pool.Acquire(opCtx, email)
	if err != nil {
		return Classify(email, err)
	}

	done := make(chan error, 1)
	go func() { done <- fn(h) }()

	select {
	case err := <-done:
		if err != nil {
			gerr := Classify(email, err)
			switch gerr.Kind {
			case models.KindConnection, models.KindTimeout, models.KindAuthentication, models.KindProtocol:
				g.pool.Invalidate(email)
			}
			g.pool.Release(h)
			return gerr
		}
		g.pool.Release(h)
		return nil
	case <-opCtx.Done():
		// The connection is presumed wedged; discard it so the next
		// acquisition dials fresh. The in-flight result is dropped.
		g.pool.Invalidate(email)
		g.pool.Release(h)
		return models.Errf(models.KindTimeout, email, "operation timed out")
	}
}
