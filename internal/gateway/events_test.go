package gateway

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEmitterDispatchesToAllHandlers(t *testing.T) {
	e := NewEmitter(discardLogger())
	got := make(chan Event, 2)
	e.On(EventMessageReceived, func(ev Event) { got <- ev })
	e.On(EventMessageReceived, func(ev Event) { got <- ev })

	if n := e.HandlerCount(EventMessageReceived); n != 2 {
		t.Fatalf("expected 2 handlers, got %d", n)
	}

	e.Emit(Event{Type: EventMessageReceived, Email: "a@b.c"})
	for i := 0; i < 2; i++ {
		select {
		case ev := <-got:
			if ev.Email != "a@b.c" {
				t.Fatalf("unexpected event: %+v", ev)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("handler not called")
		}
	}
}

func TestEmitterIgnoresUnrelatedTypes(t *testing.T) {
	e := NewEmitter(discardLogger())
	got := make(chan Event, 1)
	e.On(EventMessageSent, func(ev Event) { got <- ev })

	e.Emit(Event{Type: EventMessageReceived, Email: "a@b.c"})
	select {
	case ev := <-got:
		t.Fatalf("handler called for wrong type: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmitterSurvivesPanickingHandler(t *testing.T) {
	e := NewEmitter(discardLogger())
	got := make(chan Event, 1)
	e.On(EventMessageSent, func(Event) { panic("handler bug") })
	e.On(EventMessageSent, func(ev Event) { got <- ev })

	e.Emit(Event{Type: EventMessageSent, Email: "a@b.c", MessageID: "id@b.c"})
	select {
	case ev := <-got:
		if ev.MessageID != "id@b.c" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("surviving handler not called after sibling panic")
	}
}

func TestEmitWithNoHandlersIsNoop(t *testing.T) {
	e := NewEmitter(discardLogger())
	e.Emit(Event{Type: EventMessageSent, Email: "a@b.c"})
}
