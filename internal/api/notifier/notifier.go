// Package notifier fans out events to any number of subscribers.
package notifier

import "sync"

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 8

// Notifier broadcasts values of type T to all subscribed listeners. A
// listener whose queue is full misses the event.
type Notifier[T any] struct {
	mu        sync.RWMutex
	buffer    int
	listeners map[chan T]struct{}
}

// New creates a Notifier with DefaultBuffer slots per subscriber.
func New[T any]() *Notifier[T] {
	return NewWithBuffer[T](DefaultBuffer)
}

// NewWithBuffer creates a Notifier with the given queue length per
// subscriber; values below one are raised to one.
func NewWithBuffer[T any](buffer int) *Notifier[T] {
	return &Notifier[T]{
		buffer:    max(buffer, 1),
		listeners: make(map[chan T]struct{}),
	}
}

// Subscribe returns a channel that receives broadcast events. The caller
// must call Unsubscribe when done.
func (n *Notifier[T]) Subscribe() chan T {
	ch := make(chan T, n.buffer)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it. Unknown channels
// are ignored.
func (n *Notifier[T]) Unsubscribe(ch chan T) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.listeners[ch]; !ok {
		return
	}
	delete(n.listeners, ch)
	close(ch)
}

// Broadcast delivers ev to every listener without blocking. It returns the
// number of listeners that received it.
func (n *Notifier[T]) Broadcast(ev T) int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	delivered := 0
	for ch := range n.listeners {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Len returns the number of current listeners.
func (n *Notifier[T]) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
