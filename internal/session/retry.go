package session

import (
	"math/rand"
	"time"
)

// RetryPolicy bounds reconnect attempts during acquisition. A session that
// cannot be established within MaxAttempts surfaces a connection error
// instead of retrying forever; the gateway must never silently hang a
// request.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy is the production reconnect policy.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    15 * time.Second,
}

// Delay returns the backoff before retry number attempt (attempt 0 is the
// delay after the first failure): exponential from BaseDelay, capped at
// MaxDelay, with up to 20% jitter so reconnecting accounts do not thunder in
// step.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	if d > 0 {
		d += time.Duration(rand.Int63n(int64(d)/5 + 1))
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}
