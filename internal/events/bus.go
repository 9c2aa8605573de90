package events

import (
	"sync"

	"github.com/ampview/ampview/internal/types"
)

// Bus provides a simple event bus for publishing and subscribing to
// tree-cache notifications.
type Bus struct {
	subscribers []chan types.BusEvent
	mu          sync.RWMutex
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make([]chan types.BusEvent, 0),
	}
}

// Subscribe returns a channel that will receive all published events
func (b *Bus) Subscribe() <-chan types.BusEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan types.BusEvent, 100) // Buffered to prevent blocking
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish sends an event to all subscribers. A subscriber whose channel is
// full is skipped rather than blocking the publisher.
func (b *Bus) Publish(event types.BusEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Unsubscribe removes a channel previously returned by Subscribe and
// closes it, ending any range loop draining it. Unknown channels are
// ignored, so Unsubscribe after Close is harmless.
func (b *Bus) Unsubscribe(ch <-chan types.BusEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close closes all subscriber channels
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}

// SubscriberCount returns the number of active subscribers
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
