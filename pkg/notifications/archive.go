package notifications

import (
	"context"
	"sync"
)

// Archive persists displayed notifications so history screens can list them
// after the transient toast is gone. Saves are best effort; the display
// pipeline never blocks on archive failures.
type Archive interface {
	// Save records a notification.
	Save(ctx context.Context, n Notification) error

	// Recent returns up to limit notifications, newest first.
	Recent(ctx context.Context, limit int) ([]Notification, error)
}

// MemoryArchive is an in-memory Archive capped at a fixed number of entries.
// Suitable for development and testing.
type MemoryArchive struct {
	items []Notification // newest first
	cap   int
	mu    sync.RWMutex
}

// NewMemoryArchive creates an in-memory archive keeping at most capacity
// entries. A non-positive capacity defaults to 100.
func NewMemoryArchive(capacity int) *MemoryArchive {
	if capacity <= 0 {
		capacity = 100
	}
	return &MemoryArchive{cap: capacity}
}

func (a *MemoryArchive) Save(ctx context.Context, n Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.items = append([]Notification{n}, a.items...)
	if len(a.items) > a.cap {
		a.items = a.items[:a.cap]
	}
	return nil
}

func (a *MemoryArchive) Recent(ctx context.Context, limit int) ([]Notification, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if limit <= 0 || limit > len(a.items) {
		limit = len(a.items)
	}
	out := make([]Notification, limit)
	copy(out, a.items[:limit])
	return out, nil
}
