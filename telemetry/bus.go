package telemetry

import (
	"errors"
	"fmt"
	"sync"
)

// ErrHandlerExists is returned by SubscribeMany when a handler id is already
// registered on the bus.
var ErrHandlerExists = errors.New("telemetry: handler already exists")

// Handler receives a published event. Handlers are invoked synchronously on
// the publishing goroutine and must not block for long.
type Handler func(name string, m Measurements, md Metadata)

// Bus is an in-process publish/subscribe broadcast for telemetry events.
//
// The bus owns the handler registry: ids are unique, and duplicate
// registration fails with ErrHandlerExists instead of duplicating delivery.
// Publishing is fire-and-forget; there is no acknowledgment, buffering, or
// retry. A Bus is safe for concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]*subscription
}

type subscription struct {
	names   map[string]struct{}
	handler Handler
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]*subscription)}
}

// SubscribeMany registers handler under handlerID for the given event names.
//
// It fails with ErrHandlerExists if handlerID is already registered, and
// with a configuration error if names is empty or contains a name outside
// the six known event names.
func (b *Bus) SubscribeMany(handlerID string, names []string, handler Handler) error {
	if handlerID == "" {
		return fmt.Errorf("telemetry: empty handler id")
	}
	if handler == nil {
		return fmt.Errorf("telemetry: nil handler for %q", handlerID)
	}
	if err := validateEventNames(names); err != nil {
		return err
	}

	nameSet := make(map[string]struct{}, len(names))
	for _, name := range names {
		nameSet[name] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[handlerID]; ok {
		return fmt.Errorf("%w: %q", ErrHandlerExists, handlerID)
	}
	b.subs[handlerID] = &subscription{names: nameSet, handler: handler}
	return nil
}

// Unsubscribe removes the handler registered under handlerID. Removing an
// unknown id is a no-op.
func (b *Bus) Unsubscribe(handlerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, handlerID)
}

// Publish delivers the event to every handler subscribed to name.
//
// Handlers run synchronously, outside the registry lock, so a handler may
// subscribe or unsubscribe without deadlocking.
func (b *Bus) Publish(name string, m Measurements, md Metadata) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		if _, ok := sub.names[name]; ok {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(name, m, md)
	}
}
