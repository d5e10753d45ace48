package bus

import "sync"

// Handler receives every published event. Handlers run synchronously on the
// publisher's goroutine; spawn your own goroutine for slow work.
type Handler func(Event)

// Bus is a process-scoped publish/subscribe channel. Create one at startup and
// hand it to each component; there is no package-level default instance.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]Handler
	next int
}

func New() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

// Subscribe registers a handler and returns a token for Unsubscribe.
func (b *Bus) Subscribe(h Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.subs[b.next] = h
	return b.next
}

func (b *Bus) Unsubscribe(token int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, token)
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()
	for _, h := range handlers {
		h(e)
	}
}

func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
