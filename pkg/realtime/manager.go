package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dragonlab/mimokit/pkg/logger"
)

// TransportFactory builds a transport bound to a bearer token for channel
// authorization.
type TransportFactory func(token string) (Transport, error)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger.
func WithManagerLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// Manager owns at most one realtime transport for the process. It is an
// explicit service handle rather than package-level state; the mutex makes
// concurrent Init calls construct exactly one transport.
type Manager struct {
	factory TransportFactory
	log     *slog.Logger

	mu        sync.Mutex
	transport Transport
}

// NewManager creates a manager around the given transport factory.
func NewManager(factory TransportFactory, opts ...ManagerOption) (*Manager, error) {
	if factory == nil {
		return nil, ErrNilFactory
	}
	m := &Manager{
		factory: factory,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Init returns the active transport, constructing and connecting one bound
// to token if none exists. A live transport is returned unchanged even when
// the token differs; callers wanting a rebind must Disconnect first.
func (m *Manager) Init(ctx context.Context, token string) (Transport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.transport != nil {
		return m.transport, nil
	}

	t, err := m.factory(token)
	if err != nil {
		return nil, err
	}
	if err := t.Connect(ctx); err != nil {
		_ = t.Close()
		return nil, err
	}

	m.transport = t
	return t, nil
}

// Get returns the active transport, or nil when none exists.
func (m *Manager) Get() Transport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transport
}

// Disconnect closes the active transport and clears the handle. Without an
// active transport it is a no-op.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	t := m.transport
	m.transport = nil
	m.mu.Unlock()

	if t == nil {
		return
	}
	if err := t.Close(); err != nil {
		m.log.Warn("realtime: transport close failed", logger.Error(err))
	}
}

// JoinChannel subscribes to a channel on the active transport. Without an
// active transport it returns nil, nil.
func (m *Manager) JoinChannel(ctx context.Context, name string) (*Subscription, error) {
	t := m.Get()
	if t == nil {
		return nil, nil
	}
	return t.Subscribe(ctx, name)
}

// LeaveChannel unsubscribes from a channel. No-op without a transport.
func (m *Manager) LeaveChannel(name string) {
	t := m.Get()
	if t == nil {
		return
	}
	if err := t.Unsubscribe(name); err != nil {
		m.log.Warn("realtime: leave channel failed",
			logger.Channel(name),
			logger.Error(err),
		)
	}
}
