package notify

import (
	"sync"

	"workhub-agent/internal/models"
)

// Signal is the cross-component change event: Notification is the item that
// changed (nil when the inbox was cleared), All is the full list after the
// change, most-recent-first.
type Signal struct {
	UserID       string
	Notification *models.Notification
	All          []models.Notification
}

// Bus fans Signals out to in-process listeners that do not use the per-user
// Subscribe API on the Service.
type Bus struct {
	mu      sync.RWMutex
	nextTok int
	subs    map[int]func(Signal)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Signal))}
}

// Subscribe registers a listener and returns its cancel function. Cancelling
// more than once is a no-op.
func (b *Bus) Subscribe(fn func(Signal)) func() {
	b.mu.Lock()
	tok := b.nextTok
	b.nextTok++
	b.subs[tok] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, tok)
		b.mu.Unlock()
	}
}

func (b *Bus) Publish(sig Signal) {
	b.mu.RLock()
	listeners := make([]func(Signal), 0, len(b.subs))
	for _, fn := range b.subs {
		listeners = append(listeners, fn)
	}
	b.mu.RUnlock()

	for _, fn := range listeners {
		fn(sig)
	}
}
