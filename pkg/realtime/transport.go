package realtime

import "context"

// ConnState describes the lifecycle of a transport connection.
type ConnState string

const (
	StateUninitialized ConnState = "uninitialized"
	StateConnecting    ConnState = "connecting"
	StateConnected     ConnState = "connected"
	StateDisconnected  ConnState = "disconnected"
	StateError         ConnState = "error"
)

// Subscription pseudo-events. Transports dispatch these alongside domain
// events so callers can observe the authorization outcome without a
// separate API.
const (
	EventSubscriptionSucceeded = "subscription_succeeded"
	EventSubscriptionError     = "subscription_error"
)

// EventHandler receives the raw JSON payload of one event occurrence.
type EventHandler func(data []byte)

// StateHandler receives connection state transitions.
type StateHandler func(state ConnState)

// Binding is a disposable handle for one registered callback. Closing it
// detaches the callback; closing twice is safe.
type Binding interface {
	Close()
}

// Transport is a pub/sub connection to the realtime backend. One transport
// holds one connection; subscriptions are per-channel and at most one per
// channel name.
type Transport interface {
	// Connect establishes the connection. It returns once the connection is
	// usable or the context is done.
	Connect(ctx context.Context) error

	// Subscribe joins a channel and returns its subscription. Names with the
	// "private-" prefix require a channel-authorization handshake first.
	// Subscribing to an already-joined channel returns the existing
	// subscription.
	Subscribe(ctx context.Context, channel string) (*Subscription, error)

	// Unsubscribe leaves a channel. Unknown names are a no-op.
	Unsubscribe(channel string) error

	// OnStateChange registers a callback for connection state transitions.
	OnStateChange(fn StateHandler) Binding

	// State returns the current connection state.
	State() ConnState

	// Close tears the connection down. The transport cannot be reused.
	Close() error
}
