package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mailreactor/mailreactor/pkg/models"
)

// Pool manages every account's sessions. Acquire/Release/Invalidate/Remove
// are the sole synchronization points for the shared session map; there is no
// global lock across accounts, so one slow account never stalls the others.
type Pool struct {
	mu       sync.RWMutex
	sessions map[string]*accountSession

	dial     DialFunc
	sendDial SendDialFunc
	retry    RetryPolicy
	logger   *slog.Logger
}

// NewPool creates a session pool. Connections are established through dial
// and sendDial so tests can run against fakes.
func NewPool(dial DialFunc, sendDial SendDialFunc, retry RetryPolicy, logger *slog.Logger) *Pool {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &Pool{
		sessions: make(map[string]*accountSession),
		dial:     dial,
		sendDial: sendDial,
		retry:    retry,
		logger:   logger.With("component", "session_pool"),
	}
}

// Add registers an account with the pool. The session starts Disconnected;
// the first Acquire establishes the connection. If a session already exists
// for the account it is torn down first, so there is never more than one
// session per account.
func (p *Pool) Add(creds models.AccountCredentials) {
	p.mu.Lock()
	old := p.sessions[creds.Email]
	p.sessions[creds.Email] = newAccountSession(creds)
	p.mu.Unlock()

	if old != nil {
		old.close()
	}
}

// Acquire returns an exclusive handle on the account's connection,
// establishing it first if needed. Concurrent acquisitions for the same
// account queue; acquisitions for different accounts proceed in parallel.
// Blocks until the session is ready, the context expires, or the account is
// removed.
func (p *Pool) Acquire(ctx context.Context, email string) (*Handle, error) {
	p.mu.RLock()
	s := p.sessions[email]
	p.mu.RUnlock()
	if s == nil {
		return nil, models.Errf(models.KindNotFound, email, "no such account")
	}

	select {
	case s.slot <- struct{}{}:
	case <-s.closed:
		return nil, models.Errf(models.KindNotFound, email, "account removed")
	case <-ctx.Done():
		return nil, models.Errf(models.KindTimeout, email, "timed out waiting for session")
	}

	// Removal may have raced the slot send.
	select {
	case <-s.closed:
		<-s.slot
		return nil, models.Errf(models.KindNotFound, email, "account removed")
	default:
	}

	conn, err := p.ensureConnected(ctx, s)
	if err != nil {
		<-s.slot
		return nil, err
	}

	s.setState(StateBusy)
	return &Handle{sess: s, conn: conn}, nil
}

// ensureConnected returns the session's live connection, dialing with bounded
// backoff when there is none. Runs with the slot held, so only the state
// flips need the session lock.
func (p *Pool) ensureConnected(ctx context.Context, s *accountSession) (Conn, error) {
	s.mu.Lock()
	conn := s.conn
	creds := s.creds
	s.mu.Unlock()
	if conn != nil {
		return conn, nil
	}

	s.setState(StateConnecting)

	var lastErr error
	for attempt := 0; attempt < p.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := p.retry.Delay(attempt - 1)
			p.logger.Debug("retrying connect", "email", s.email, "attempt", attempt, "delay", delay)
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				s.setState(StateDisconnected)
				return nil, models.Errf(models.KindTimeout, s.email, "timed out during reconnect backoff")
			case <-s.closed:
				timer.Stop()
				return nil, models.Errf(models.KindNotFound, s.email, "account removed")
			}
		}

		conn, lastErr = p.dial(ctx, creds)
		if lastErr == nil {
			s.mu.Lock()
			// Removal may have raced the dial. A closed session must stay
			// closed, and the connection must not outlive it.
			if s.state == StateClosed {
				s.mu.Unlock()
				go conn.Logout()
				return nil, models.Errf(models.KindNotFound, s.email, "account removed")
			}
			s.conn = conn
			s.state = StateReady
			s.mu.Unlock()
			return conn, nil
		}

		// Rejected credentials will not get better on retry.
		if models.IsKind(lastErr, models.KindAuthentication) {
			s.setState(StateDisconnected)
			return nil, lastErr
		}
		if ctx.Err() != nil {
			s.setState(StateDisconnected)
			return nil, models.Errf(models.KindTimeout, s.email, "timed out establishing connection")
		}
		p.logger.Warn("connect attempt failed", "email", s.email, "attempt", attempt+1, "error", lastErr)
	}

	s.setState(StateDisconnected)
	return nil, models.Errf(models.KindConnection, s.email,
		"connect failed after %d attempts: %v", p.retry.MaxAttempts, lastErr)
}

// Release returns the session to Ready and unblocks the next queued acquirer
// for that account. Safe to call once per handle; extra calls are no-ops.
func (p *Pool) Release(h *Handle) {
	if h == nil {
		return
	}
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	h.mu.Unlock()

	s := h.sess
	s.mu.Lock()
	if s.state == StateBusy {
		if s.conn != nil {
			s.state = StateReady
		} else {
			s.state = StateDisconnected
		}
	}
	s.mu.Unlock()

	<-s.slot
}

// Invalidate forces the account's session to Disconnected, discarding the
// connection. The next acquisition dials fresh instead of reusing a broken
// connection. Any in-flight operation's result is discarded by its caller.
func (p *Pool) Invalidate(email string) {
	p.mu.RLock()
	s := p.sessions[email]
	p.mu.RUnlock()
	if s == nil {
		return
	}
	s.dropConn()
	p.logger.Debug("session invalidated", "email", email)
}

// Remove closes the account's session and deletes the entry. Queued waiters
// receive a terminal error. Idempotent: removing an unknown account is not an
// error.
func (p *Pool) Remove(email string) {
	p.mu.Lock()
	s := p.sessions[email]
	delete(p.sessions, email)
	p.mu.Unlock()
	if s == nil {
		return
	}
	s.close()
	p.logger.Info("session removed", "email", email)
}

// DialSend opens a fresh outbound connection for the account. Outbound
// connections are per-send: opened for one submission, closed right after.
func (p *Pool) DialSend(ctx context.Context, email string) (SendConn, error) {
	creds, ok := p.Creds(email)
	if !ok {
		return nil, models.Errf(models.KindNotFound, email, "no such account")
	}
	return p.sendDial(ctx, creds)
}

// Creds returns the account's current credentials.
func (p *Pool) Creds(email string) (models.AccountCredentials, bool) {
	p.mu.RLock()
	s := p.sessions[email]
	p.mu.RUnlock()
	if s == nil {
		return models.AccountCredentials{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, true
}

// UpdateSecret rotates the account's secret and drops the current connection
// so the next acquisition authenticates with the new one.
func (p *Pool) UpdateSecret(email, secret string) error {
	p.mu.RLock()
	s := p.sessions[email]
	p.mu.RUnlock()
	if s == nil {
		return models.Errf(models.KindNotFound, email, "no such account")
	}
	s.mu.Lock()
	s.creds.Secret = secret
	s.mu.Unlock()
	s.dropConn()
	return nil
}

// Status returns the session state for an account.
func (p *Pool) Status(email string) (State, bool) {
	p.mu.RLock()
	s := p.sessions[email]
	p.mu.RUnlock()
	if s == nil {
		return StateDisconnected, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, true
}

// Emails returns the accounts currently registered with the pool.
func (p *Pool) Emails() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	emails := make([]string, 0, len(p.sessions))
	for email := range p.sessions {
		emails = append(emails, email)
	}
	return emails
}

// Close removes every session. Used on shutdown.
func (p *Pool) Close() {
	for _, email := range p.Emails() {
		p.Remove(email)
	}
}
