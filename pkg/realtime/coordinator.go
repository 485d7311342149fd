package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dragonlab/mimokit/pkg/logger"
	"github.com/dragonlab/mimokit/pkg/notifications"
	"github.com/dragonlab/mimokit/pkg/tokenstore"
)

const defaultResolveTimeout = 10 * time.Second

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorLogger sets the logger.
func WithCoordinatorLogger(log *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// WithResolveHTTPClient sets the HTTP client used for channel resolution.
func WithResolveHTTPClient(hc *http.Client) CoordinatorOption {
	return func(c *Coordinator) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// Coordinator ties the realtime connection to the authentication state: it
// initializes the shared transport with the current bearer token, resolves
// the user's private channel, joins it, and maps transfer events into the
// notification store. Setup failures are logged and leave the coordinator
// idle; nothing retries.
type Coordinator struct {
	manager    *Manager
	tokens     tokenstore.Store
	store      *notifications.Store
	formatter  *Formatter
	resolveURL string
	httpClient *http.Client
	log        *slog.Logger

	// startMu serializes Start/Stop end to end so two activations can
	// never interleave and double-bind.
	startMu sync.Mutex

	mu           sync.Mutex
	alive        bool
	connected    bool
	channel      string
	sub          *Subscription
	bindings     []Binding
	stateBinding Binding
}

// NewCoordinator creates a coordinator. resolveURL is the endpoint
// answering the per-user channel lookup with `{"channel": "<name>"}`.
func NewCoordinator(manager *Manager, tokens tokenstore.Store, store *notifications.Store, formatter *Formatter, resolveURL string, opts ...CoordinatorOption) (*Coordinator, error) {
	if manager == nil {
		return nil, ErrNilManager
	}
	if tokens == nil {
		return nil, ErrNilTokenStore
	}
	if store == nil {
		return nil, ErrNilStore
	}
	if formatter == nil {
		return nil, ErrNilTranslator
	}
	if resolveURL == "" {
		return nil, ErrEmptyURL
	}

	c := &Coordinator{
		manager:    manager,
		tokens:     tokens,
		store:      store,
		formatter:  formatter,
		resolveURL: resolveURL,
		httpClient: &http.Client{Timeout: defaultResolveTimeout},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start activates the coordinator. Without a stored token it stays idle.
// Restarting leaves the previously joined channel before joining again.
// Every setup failure is logged and swallowed; IsConnected and
// IsInitialized simply remain false. Concurrent Start and Stop calls are
// serialized; each runs to completion before the next begins.
func (c *Coordinator) Start(ctx context.Context) {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	c.mu.Lock()
	wasAlive := c.alive
	c.mu.Unlock()
	if wasAlive {
		c.stop()
	}

	token, err := c.tokens.Token(ctx)
	if err != nil || token == "" {
		c.log.Debug("realtime: no token, coordinator idle")
		return
	}

	c.mu.Lock()
	c.alive = true
	c.mu.Unlock()

	transport, err := c.manager.Init(ctx, token)
	if err != nil {
		c.log.Warn("realtime: transport init failed", logger.Error(err))
		return
	}

	stateBinding := transport.OnStateChange(func(state ConnState) {
		c.mu.Lock()
		c.connected = state == StateConnected
		c.mu.Unlock()
		c.log.Debug("realtime: connection state changed", logger.ConnState(string(state)))
	})

	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		stateBinding.Close()
		return
	}
	c.stateBinding = stateBinding
	c.connected = transport.State() == StateConnected
	c.mu.Unlock()

	name, err := c.resolveChannel(ctx, token)
	if err != nil {
		c.log.Warn("realtime: channel resolution failed", logger.Error(err))
		return
	}
	channel := "private-" + name

	// The lookup is asynchronous; a Stop that raced it must win.
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	sub, err := c.manager.JoinChannel(ctx, channel)
	if err != nil || sub == nil {
		c.log.Warn("realtime: channel join failed",
			logger.Channel(channel),
			logger.Error(err),
		)
		return
	}

	bindings := []Binding{
		sub.Bind(EventSubscriptionSucceeded, func([]byte) {
			c.log.Debug("realtime: subscription succeeded", logger.Channel(channel))
		}),
		sub.Bind(EventSubscriptionError, func(data []byte) {
			// Logged only: transient authorization noise must not alert the
			// user.
			c.log.Warn("realtime: subscription error",
				logger.Channel(channel),
				"data", string(data),
			)
		}),
		sub.Bind(EventTransferCompleted, c.handleTransfer),
	}

	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		for _, b := range bindings {
			b.Close()
		}
		c.manager.LeaveChannel(channel)
		return
	}
	c.channel = channel
	c.sub = sub
	c.bindings = bindings
	c.mu.Unlock()

	c.log.Info("realtime: coordinator started", logger.Channel(channel))
}

// Stop leaves the joined channel, releases every binding, and disconnects
// the shared transport. Safe to call when never started.
func (c *Coordinator) Stop() {
	c.startMu.Lock()
	defer c.startMu.Unlock()
	c.stop()
}

func (c *Coordinator) stop() {
	c.mu.Lock()
	c.alive = false
	c.connected = false
	channel := c.channel
	bindings := c.bindings
	stateBinding := c.stateBinding
	c.channel = ""
	c.sub = nil
	c.bindings = nil
	c.stateBinding = nil
	c.mu.Unlock()

	for _, b := range bindings {
		b.Close()
	}
	if stateBinding != nil {
		stateBinding.Close()
	}
	if channel != "" {
		c.manager.LeaveChannel(channel)
	}
	c.manager.Disconnect()
}

// IsConnected reports whether the underlying connection is established.
func (c *Coordinator) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// IsInitialized reports whether a channel is joined and bound.
func (c *Coordinator) IsInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub != nil
}

// Channel returns the joined channel name, empty when idle.
func (c *Coordinator) Channel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

func (c *Coordinator) handleTransfer(data []byte) {
	ev, err := ParseTransferCompleted(data)
	if err != nil {
		c.log.Warn("realtime: dropping malformed transfer event", logger.Error(err))
		return
	}

	n := c.store.Push(c.formatter.Format(ev))
	c.log.Debug("realtime: transfer notification queued",
		logger.NotificationID(n.ID),
		logger.Event(EventTransferCompleted),
	)
}

// resolveChannel asks the backend for the user's channel name. A leading
// "private-" prefix in the response is stripped so joining can add it back
// uniformly.
func (c *Coordinator) resolveChannel(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL, nil)
	if err != nil {
		return "", errors.Join(ErrChannelResolveFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Join(ErrChannelResolveFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrChannelResolveFailed, resp.StatusCode)
	}

	var out struct {
		Channel string `json:"channel"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Join(ErrChannelResolveFailed, err)
	}
	if out.Channel == "" {
		return "", ErrChannelResolveFailed
	}
	return strings.TrimPrefix(out.Channel, "private-"), nil
}
