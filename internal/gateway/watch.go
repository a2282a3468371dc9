package gateway

import (
	"context"
	"time"

	"github.com/mailreactor/mailreactor/internal/session"
	"github.com/mailreactor/mailreactor/internal/translate"
	"github.com/mailreactor/mailreactor/pkg/models"
)

// watcher polls one account's INBOX for new mail and emits
// EventMessageReceived for every message whose UID is above the highest seen.
// It goes through the normal acquire/translate/release path, so watching and
// REST traffic serialize on the same session.
type watcher struct {
	cancel context.CancelFunc
}

func (g *Gateway) startWatcher(email string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.watchers[email]; ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	g.watchers[email] = &watcher{cancel: cancel}
	go g.watchLoop(ctx, email)
}

func (g *Gateway) stopWatcher(email string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if w, ok := g.watchers[email]; ok {
		w.cancel()
		delete(g.watchers, email)
	}
}

func (g *Gateway) watchLoop(ctx context.Context, email string) {
	logger := g.logger.With("component", "watcher", "email", email)
	logger.Debug("watcher started", "interval", g.opts.PollInterval)

	// lastUID and initialized are owned by this goroutine. Each poll closure
	// writes only per-tick variables: a poll abandoned by the operation
	// timeout keeps writing its own tick's locals, which nothing else reads,
	// and its result is discarded instead of being committed here.
	var lastUID uint32
	initialized := false

	ticker := time.NewTicker(g.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("watcher stopped")
			return
		case <-ticker.C:
		}

		var (
			highest   uint32
			summaries []models.MessageSummary
		)
		firstPoll := !initialized
		since := lastUID
		err := g.withSession(ctx, email, func(h *session.Handle) error {
			var err error
			if firstPoll {
				highest, err = translate.HighestUID(h, "INBOX")
				return err
			}
			summaries, err = translate.NewerSummaries(h, "INBOX", since)
			return err
		})
		if err != nil {
			if models.IsKind(err, models.KindNotFound) {
				// Account removed out from under us.
				logger.Debug("watcher exiting, account gone")
				return
			}
			logger.Warn("poll failed", "error", err)
			continue
		}

		if firstPoll {
			lastUID = highest
			initialized = true
			continue
		}
		for i := range summaries {
			s := summaries[i]
			if s.UID > lastUID {
				lastUID = s.UID
			}
			g.events.Emit(Event{
				Type:    EventMessageReceived,
				Email:   email,
				Time:    time.Now(),
				Summary: &s,
			})
		}
	}
}
