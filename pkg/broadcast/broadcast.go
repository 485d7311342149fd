package broadcast

import (
	"context"
	"sync"
)

// Subscriber receives values published through a Broadcaster.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns the channel values are delivered on. The channel is
	// closed when the subscriber is closed. The context parameter allows
	// implementations backed by external systems to respect cancellation;
	// the in-memory implementation ignores it.
	Receive(ctx context.Context) <-chan T

	// Close closes the subscriber and releases resources.
	// Close is idempotent and safe to call multiple times.
	Close() error
}

// Broadcaster delivers each published value to every active subscriber.
// Implementations must never block the publisher on a slow consumer;
// values are dropped instead.
type Broadcaster[T any] interface {
	// Subscribe creates a subscriber receiving all subsequently published
	// values. The subscription is cleaned up when ctx is cancelled.
	Subscribe(ctx context.Context) Subscriber[T]

	// Publish delivers v to all active subscribers. Values may be dropped
	// for subscribers whose buffers are full.
	Publish(ctx context.Context, v T) error

	// Close shuts down the broadcaster and closes all subscribers.
	Close() error
}

type subscriber[T any] struct {
	ch     chan T
	closed bool
	mu     sync.RWMutex
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{
		ch: make(chan T, bufferSize),
	}
}

func (s *subscriber[T]) Receive(ctx context.Context) <-chan T {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

func (s *subscriber[T]) send(v T) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- v:
		return true
	default:
		return false
	}
}
