package apiclient

import "sync"

type Event string

const (
	// EventTokensUpdated fires when a refresh produced a new access
	// token; in-process consumers should drop cached copies.
	EventTokensUpdated Event = "tokensUpdated"
	// EventAuthExpired fires on terminal refresh failure; consumers
	// must treat the user as logged out.
	EventAuthExpired Event = "authExpired"
)

// AuthExpiredPayload carries the route active when the session died so
// the login view can navigate back afterwards.
type AuthExpiredPayload struct {
	Route string
}

// EventBus delivers auth lifecycle events to subscribed handlers.
// Handlers run synchronously on the emitting goroutine and must not
// block.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[Event][]func(payload interface{})
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[Event][]func(payload interface{})),
	}
}

func (b *EventBus) Subscribe(event Event, handler func(payload interface{})) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

func (b *EventBus) emit(event Event, payload interface{}) {
	b.mu.RLock()
	handlers := b.handlers[event]
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(payload)
	}
}
