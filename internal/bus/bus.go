// Package bus provides the in-process event bus used as the delivery path
// for bump notifications when no direct handler function is registered.
package bus

import (
	"sync"
	"time"
)

// Event is the envelope carried on the bus.
type Event struct {
	// Name identifies the event (e.g. "sblp_request_start")
	Name string `json:"name"`

	// Source identifies who emitted the event
	Source string `json:"source"`

	// Timestamp is when the event was emitted
	Timestamp time.Time `json:"timestamp"`

	// Payload is the typed payload
	Payload interface{} `json:"payload"`
}

// New creates a timestamped event.
func New(name, source string, payload interface{}) Event {
	return Event{
		Name:      name,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// Handler receives published events.
type Handler func(Event)

// Bus is a synchronous in-process event bus. It dispatches events to
// registered handlers immediately on Publish(). Delivery and ordering
// guarantees beyond "handlers run in registration order on the publishing
// goroutine" are intentionally not provided.
type Bus struct {
	handlers    map[string][]Handler
	allHandlers []Handler
	mu          sync.RWMutex
	closed      bool
}

// NewBus creates a new in-process event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
	}
}

// Publish dispatches an event to all matching handlers.
// Handlers for the specific event name are called first, then global handlers.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	if handlers, ok := b.handlers[event.Name]; ok {
		for _, handler := range handlers {
			handler(event)
		}
	}

	for _, handler := range b.allHandlers {
		handler(event)
	}
}

// Subscribe registers a handler for a specific event name.
func (b *Bus) Subscribe(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[name] = append(b.handlers[name], handler)
}

// SubscribeAll registers a handler that receives every event.
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.allHandlers = append(b.allHandlers, handler)
}

// Close marks the bus as closed. No more events will be dispatched.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
}

// HandlerCount returns the total number of registered handlers (for diagnostics).
func (b *Bus) HandlerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := len(b.allHandlers)
	for _, handlers := range b.handlers {
		count += len(handlers)
	}
	return count
}
