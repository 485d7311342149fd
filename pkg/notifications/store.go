package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is a FIFO queue of notifications. It is written by multiple
// producers (the realtime event handler, manual triggers) and read by a
// single consumer (the Hub). All methods are safe for concurrent use.
//
// There is no deduplication: repeated identical messages are all queued.
type Store struct {
	items []Notification
	mu    sync.RWMutex

	watchMu     sync.Mutex
	watchers    map[chan struct{}]struct{}
	watchClosed bool
}

// NewStore creates an empty notification store.
func NewStore() *Store {
	return &Store{
		watchers: make(map[chan struct{}]struct{}),
	}
}

// Push appends a notification, assigning a unique ID and creation timestamp.
// An empty severity defaults to info. The stored notification is returned.
func (s *Store) Push(in Input) Notification {
	n := Notification{
		ID:        uuid.New().String(),
		Title:     in.Title,
		Message:   in.Message,
		Severity:  in.Severity,
		CreatedAt: time.Now(),
		Raw:       in.Raw,
	}
	if n.Severity == "" {
		n.Severity = SeverityInfo
	}

	s.mu.Lock()
	s.items = append(s.items, n)
	s.mu.Unlock()

	s.notify()
	return n
}

// Remove deletes the notification with the given ID, reporting whether one
// was found. At most one entry is removed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	removed := false
	for i, n := range s.items {
		if n.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()

	if removed {
		s.notify()
	}
	return removed
}

// Clear empties the queue.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()

	s.notify()
}

// Oldest returns the notification at the head of the queue without removing
// it. The second return value is false when the queue is empty.
func (s *Store) Oldest() (Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.items) == 0 {
		return Notification{}, false
	}
	return s.items[0], true
}

// List returns a snapshot of the queue in insertion order.
func (s *Store) List() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of queued notifications.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Watch returns a channel signalled whenever the queue changes. The channel
// is buffered for one signal: mutations while the consumer is busy coalesce
// into that pending signal, and the consumer is never dropped for being
// slow. The channel is closed only when ctx is cancelled or the store is
// closed; consumers re-read the queue after each wake-up.
func (s *Store) Watch(ctx context.Context) <-chan struct{} {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	ch := make(chan struct{}, 1)
	if s.watchClosed {
		close(ch)
		return ch
	}
	s.watchers[ch] = struct{}{}

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			s.unwatch(ch)
		}()
	}
	return ch
}

// notify wakes every watcher without blocking. A watcher that already holds
// a pending signal keeps just that one.
func (s *Store) notify() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	for ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) unwatch(ch chan struct{}) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	if _, ok := s.watchers[ch]; ok {
		delete(s.watchers, ch)
		close(ch)
	}
}

// Close releases the store's watch machinery. Watch channels are closed.
func (s *Store) Close() error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	if s.watchClosed {
		return nil
	}
	s.watchClosed = true
	for ch := range s.watchers {
		close(ch)
	}
	clear(s.watchers)
	return nil
}
