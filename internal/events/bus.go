package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Handler is a function that receives events from the bus.
type Handler func(event *Event)

type subscription struct {
	id      int
	handler Handler
}

// Bus is an in-process publish/subscribe event bus. Handlers are invoked
// asynchronously so emitters never block on slow subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]subscription
	nextID      int
	log         zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[EventType][]subscription),
		log:         log.With().Str("service", "event_bus").Logger(),
	}
}

// Subscribe registers a handler for the given event type.
// Returns an unsubscribe function.
func (b *Bus) Subscribe(eventType EventType, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subscribers[eventType] = append(b.subscribers[eventType], subscription{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[eventType]
		for i, sub := range subs {
			if sub.id == id {
				b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit publishes an event to all subscribers of its type. Handlers for a
// single emit run sequentially in one goroutine, in subscription order.
func (b *Bus) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := &Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subscribers[eventType]))
	for _, sub := range b.subscribers[eventType] {
		handlers = append(handlers, sub.handler)
	}
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	go func() {
		for _, handler := range handlers {
			b.dispatch(handler, event)
		}
	}()
}

// dispatch invokes a single handler, recovering from panics so one bad
// subscriber cannot take down the bus goroutine.
func (b *Bus) dispatch(handler Handler, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Interface("panic", r).
				Str("event_type", string(event.Type)).
				Msg("Event handler panicked")
		}
	}()
	handler(event)
}

// SubscriberCount returns the number of handlers registered for a type.
// Used by tests and the live stream diagnostics endpoint.
func (b *Bus) SubscriberCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[eventType])
}
