// Package events carries in-process notifications from the core to
// whoever presents them (the CLI, the local bridge).
package events

import (
	"sync"
	"time"
)

type Kind string

const (
	KindAuthState    Kind = "auth.state"
	KindSyncStarted  Kind = "sync.started"
	KindSyncFinished Kind = "sync.finished"
	KindSyncFailed   Kind = "sync.failed"
)

// Event is a single notification. Fields holds kind-specific details such
// as "state", "op", "file_id" or "error".
type Event struct {
	Kind   Kind
	At     time.Time
	Fields map[string]string
}

func New(kind Kind, kv ...string) Event {
	e := Event{Kind: kind, At: time.Now().UTC(), Fields: make(map[string]string, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		e.Fields[kv[i]] = kv[i+1]
	}
	return e
}

// Bus fans events out to subscribers synchronously, in subscription order.
// Handlers must not block.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]func(Event)
	order  []uint64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]func(Event))}
}

// Subscribe registers fn and returns its disposer. Calling the disposer
// more than once is harmless.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i:i], b.order[i+1:]...)
			break
		}
	}
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]func(Event), 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// Len reports the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Channel subscribes a buffered channel. Events that do not fit are dropped
// so a slow reader never stalls publishers. The channel is closed by the
// returned disposer.
func (b *Bus) Channel(size int) (<-chan Event, func()) {
	ch := make(chan Event, size)
	var mu sync.Mutex
	closed := false

	unsubscribe := b.Subscribe(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- e:
		default:
		}
	})

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			unsubscribe()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
}
