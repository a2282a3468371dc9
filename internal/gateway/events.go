package gateway

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mailreactor/mailreactor/pkg/models"
)

// EventType identifies a gateway event.
type EventType string

const (
	EventMessageReceived EventType = "message.received"
	EventMessageSent     EventType = "message.sent"
)

// Event describes something that happened on an account. Summary is set for
// received events, MessageID for sent events.
type Event struct {
	Type      EventType
	Email     string
	Time      time.Time
	Summary   *models.MessageSummary
	MessageID string
}

// Handler receives gateway events. Handlers run concurrently and must be
// safe to call from multiple goroutines.
type Handler func(Event)

// Emitter dispatches gateway events to registered handlers. A panicking
// handler never takes down the others or the gateway.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	logger   *slog.Logger
}

func NewEmitter(logger *slog.Logger) *Emitter {
	return &Emitter{
		handlers: make(map[EventType][]Handler),
		logger:   logger.With("component", "events"),
	}
}

// On registers a handler for an event type.
func (e *Emitter) On(t EventType, h Handler) {
	e.mu.Lock()
	e.handlers[t] = append(e.handlers[t], h)
	e.mu.Unlock()
}

// HandlerCount returns the number of handlers registered for an event type.
func (e *Emitter) HandlerCount(t EventType) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers[t])
}

// Emit dispatches an event to every handler for its type, each on its own
// goroutine.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	handlers := e.handlers[ev.Type]
	e.mu.RUnlock()

	for _, h := range handlers {
		go e.safeCall(h, ev)
	}
}

func (e *Emitter) safeCall(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("event handler panicked", "type", ev.Type, "email", ev.Email, "panic", r)
		}
	}()
	h(ev)
}
