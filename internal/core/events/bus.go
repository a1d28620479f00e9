package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeDataRefreshed  Type = "data.refreshed"
	TypeRefreshFailed  Type = "data.refresh_failed"
	TypeSessionExpired Type = "session.expired"
)

// Event is a notification about something the user should see without
// being interrupted: refresh outcomes, session expiry. This is the
// non-blocking toast channel; a handler that fails never propagates.
type Event struct {
	ID        string
	Type      Type
	Timestamp time.Time
	Message   string
	Fields    map[string]interface{}
}

func New(eventType Type, message string, fields map[string]interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Message:   message,
		Fields:    fields,
	}
}

type Handler func(ctx context.Context, event Event)

type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	logger   *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[Type][]Handler),
		logger:   logger,
	}
}

func (b *Bus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers the event to every subscriber synchronously, in
// registration order. A panicking handler is contained and logged so one
// bad notification sink cannot take the process down.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("no handlers for event", "event_type", event.Type)
		return
	}

	for _, handler := range handlers {
		b.deliver(ctx, handler, event)
	}
}

func (b *Bus) deliver(ctx context.Context, handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event_type", event.Type,
				"event_id", event.ID,
				"panic", r)
		}
	}()
	handler(ctx, event)
}
