// Package event is the observer list behind the nexus stores. A store owns
// one Bus per state type and publishes a snapshot after every change.
package event

import (
	"sync"
)

// Handler receives a published payload.
type Handler[T any] func(payload T)

// Bus dispatches payloads of one type to its subscribers. The zero value is
// ready to use.
type Bus[T any] struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler[T]
	order    []int
}

// Subscribe registers h and returns a func that removes it again.
func (b *Bus[T]) Subscribe(h Handler[T]) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = map[int]Handler[T]{}
	}
	id := b.next
	b.next++
	b.handlers[id] = h
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus[T]) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, id)
	for i, o := range b.order {
		if o == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Publish calls every handler synchronously, in subscription order. Handlers
// run outside the bus lock and may unsubscribe themselves.
func (b *Bus[T]) Publish(payload T) {
	for _, h := range b.snapshot() {
		h(payload)
	}
}

// PublishAsync calls every handler on its own goroutine and returns at once.
func (b *Bus[T]) PublishAsync(payload T) {
	for _, h := range b.snapshot() {
		go h(payload)
	}
}

// Len returns the number of subscribers.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

func (b *Bus[T]) snapshot() []Handler[T] {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]Handler[T], 0, len(b.order))
	for _, id := range b.order {
		hs = append(hs, b.handlers[id])
	}
	return hs
}
