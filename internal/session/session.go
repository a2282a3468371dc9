// Package session owns the mapping from account email to live protocol
// sessions and guarantees exclusive, ordered access to each session's
// underlying connection. IMAP sessions are stateful and sequential; all
// cross-request synchronization in the gateway happens here.
package session

import (
	"sync"

	"github.com/mailreactor/mailreactor/pkg/models"
)

// State is the lifecycle state of one account session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
	StateBusy
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// accountSession is the live state machine for one account. Owned exclusively
// by the pool; callers only ever see a Handle.
type accountSession struct {
	email string

	// slot is the exclusive-access token. Holding it means the caller owns
	// the connection until Release. Capacity 1 gives per-account queueing
	// while different accounts proceed fully in parallel.
	slot chan struct{}

	// closed is closed exactly once, on Remove. Queued waiters select on it
	// so removal never strands them.
	closed chan struct{}

	mu        sync.Mutex
	creds     models.AccountCredentials
	state     State
	conn      Conn
	closeOnce sync.Once
}

func newAccountSession(creds models.AccountCredentials) *accountSession {
	return &accountSession{
		email:  creds.Email,
		creds:  creds,
		slot:   make(chan struct{}, 1),
		closed: make(chan struct{}),
		state:  StateDisconnected,
	}
}

func (s *accountSession) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// dropConn discards the connection and moves to Disconnected unless the
// session is already closed. The logout happens off the caller's goroutine;
// a wedged connection must not block state transitions.
func (s *accountSession) dropConn() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	if s.state != StateClosed {
		s.state = StateDisconnected
	}
	s.mu.Unlock()

	if conn != nil {
		go conn.Logout()
	}
}

// close enters the terminal Closed state. No further transitions are
// permitted afterwards.
func (s *accountSession) close() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.state = StateClosed
	s.mu.Unlock()

	s.closeOnce.Do(func() { close(s.closed) })

	if conn != nil {
		go conn.Logout()
	}
}

// Handle grants its holder exclusive use of one account's connection for the
// duration of a single operation. Obtained from Acquire, returned with
// Release.
type Handle struct {
	sess *accountSession
	conn Conn

	mu       sync.Mutex
	released bool
}

// Email returns the account the handle belongs to.
func (h *Handle) Email() string { return h.sess.email }

// Conn returns the underlying connection. Valid only between Acquire and
// Release.
func (h *Handle) Conn() Conn { return h.conn }
