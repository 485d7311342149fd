package broadcast

import (
	"context"
	"sync"
)

// MemoryBroadcaster is an in-process Broadcaster. Publishing never blocks:
// when a subscriber's buffer is full the value is dropped for that subscriber
// and the subscriber is removed. All methods are safe for concurrent use.
type MemoryBroadcaster[T any] struct {
	subscribers map[*subscriber[T]]struct{}
	bufferSize  int
	closed      bool
	mu          sync.RWMutex
	cleanupWg   sync.WaitGroup
}

// NewMemoryBroadcaster creates an in-memory broadcaster whose subscribers
// buffer up to bufferSize values. A minimum buffer of 1 is enforced; a
// zero-buffer channel would make every send blocking and defeat the
// non-blocking contract.
func NewMemoryBroadcaster[T any](bufferSize int) *MemoryBroadcaster[T] {
	return &MemoryBroadcaster[T]{
		subscribers: make(map[*subscriber[T]]struct{}),
		bufferSize:  max(bufferSize, 1),
	}
}

// Subscribe creates a new subscriber that will receive all published values.
// The subscription is cleaned up when ctx is cancelled. If the broadcaster is
// already closed, the returned subscriber is already closed too.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := newSubscriber[T](b.bufferSize)
	if b.closed {
		_ = sub.Close()
		return sub
	}

	b.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		b.cleanupWg.Add(1)
		go func() {
			defer b.cleanupWg.Done()
			<-ctx.Done()
			b.unsubscribe(sub)
		}()
	}

	return sub
}

// Publish delivers v to all active subscribers without blocking. Subscribers
// whose buffers are full are dropped. Returns nil even when some subscribers
// did not receive the value.
func (b *MemoryBroadcaster[T]) Publish(ctx context.Context, v T) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}

	for sub := range b.subscribers {
		if !sub.send(v) {
			// Removing under the read lock would deadlock; hand off to a
			// goroutine that takes the write lock.
			go b.unsubscribe(sub)
		}
	}

	return nil
}

// Close shuts down the broadcaster and closes all subscribers.
// Safe to call multiple times.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()

	if b.closed {
		b.mu.Unlock()
		return nil
	}

	b.closed = true

	for sub := range b.subscribers {
		_ = sub.Close()
	}

	clear(b.subscribers)
	b.mu.Unlock()

	// Wait for context-cancellation cleanups so no unsubscribe runs against
	// a closed broadcaster.
	b.cleanupWg.Wait()

	return nil
}

func (b *MemoryBroadcaster[T]) unsubscribe(sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	_ = sub.Close()
}
