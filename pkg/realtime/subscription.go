package realtime

import (
	"sort"
	"sync"
)

// Subscription represents membership of one channel. Event callbacks are
// attached with Bind and detached by closing the returned handle, so a
// teardown path can release exactly what it registered.
type Subscription struct {
	channel string

	mu       sync.RWMutex
	nextID   int
	handlers map[string]map[int]EventHandler
}

// NewSubscription creates a subscription for a channel. Transports call
// this from Subscribe and feed events in through Dispatch.
func NewSubscription(channel string) *Subscription {
	return &Subscription{
		channel:  channel,
		handlers: make(map[string]map[int]EventHandler),
	}
}

// Channel returns the channel name this subscription belongs to.
func (s *Subscription) Channel() string { return s.channel }

// Bind attaches fn to the named event and returns its disposable handle.
// Multiple handlers per event are allowed and fire in registration order.
func (s *Subscription) Bind(event string, fn EventHandler) Binding {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handlers[event] == nil {
		s.handlers[event] = make(map[int]EventHandler)
	}
	id := s.nextID
	s.nextID++
	s.handlers[event][id] = fn

	return &binding{unbind: func() { s.unbind(event, id) }}
}

func (s *Subscription) unbind(event string, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m := s.handlers[event]; m != nil {
		delete(m, id)
		if len(m) == 0 {
			delete(s.handlers, event)
		}
	}
}

// Dispatch fans one event occurrence out to its handlers in registration
// order. Handlers run on the caller's goroutine; a slow handler delays
// subsequent events.
func (s *Subscription) Dispatch(event string, data []byte) {
	s.mu.RLock()
	m := s.handlers[event]
	fns := make([]EventHandler, 0, len(m))
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	// Map iteration order is random; registration order is the id order.
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, m[id])
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(data)
	}
}

// binding implements Binding with an idempotent close.
type binding struct {
	once   sync.Once
	unbind func()
}

func (b *binding) Close() {
	b.once.Do(b.unbind)
}
