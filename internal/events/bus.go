// Package events broadcasts in-process notifications, such as "session
// updated", to any number of independent subscribers.
package events

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Bus fans a value out to every subscriber without blocking the publisher.
// A subscriber whose buffer is full misses the value.
type Bus[T any] struct {
	name   string
	buffer int
	logger *logrus.Logger

	mu     sync.RWMutex
	nextID int
	subs   map[int]chan T
}

func NewBus[T any](name string, buffer int) *Bus[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &Bus[T]{
		name:   name,
		buffer: buffer,
		logger: logrus.StandardLogger(),
		subs:   make(map[int]chan T),
	}
}

// Subscribe returns a receive channel and a function that unsubscribes and
// closes it. The cancel function is safe to call more than once.
func (b *Bus[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, b.buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers value to every subscriber with room in its buffer and
// returns how many received it.
func (b *Bus[T]) Publish(value T) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for id, ch := range b.subs {
		select {
		case ch <- value:
			delivered++
		default:
			b.logger.WithFields(logrus.Fields{
				"bus":        b.name,
				"subscriber": id,
			}).Warn("Subscriber is not keeping up, event dropped")
		}
	}
	return delivered
}

func (b *Bus[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
