package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dragonlab/mimokit/pkg/logger"
)

// Protocol frame names.
const (
	frameConnectionEstablished = "pusher:connection_established"
	frameSubscribe             = "pusher:subscribe"
	frameUnsubscribe           = "pusher:unsubscribe"
	framePing                  = "pusher:ping"
	framePong                  = "pusher:pong"
	frameError                 = "pusher:error"

	frameInternalSucceeded = "pusher_internal:subscription_succeeded"
)

const defaultAuthTimeout = 10 * time.Second

// frame is the wire envelope. Data is either a JSON object or a
// double-encoded JSON string depending on the server.
type frame struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// WSOption configures a WSTransport.
type WSOption func(*WSTransport)

// WithWSLogger sets the logger.
func WithWSLogger(log *slog.Logger) WSOption {
	return func(t *WSTransport) {
		if log != nil {
			t.log = log
		}
	}
}

// WithAuthHTTPClient sets the HTTP client used for the channel-authorization
// handshake.
func WithAuthHTTPClient(hc *http.Client) WSOption {
	return func(t *WSTransport) {
		if hc != nil {
			t.httpClient = hc
		}
	}
}

// WithDialer sets the websocket dialer.
func WithDialer(d *websocket.Dialer) WSOption {
	return func(t *WSTransport) {
		if d != nil {
			t.dialer = d
		}
	}
}

// WSTransport is a Transport over a single websocket connection speaking a
// pusher-style protocol. Private channels are authorized by POSTing the
// socket id and channel name to authURL with the bearer token the transport
// was constructed with.
type WSTransport struct {
	wsURL      string
	authURL    string
	token      string
	log        *slog.Logger
	httpClient *http.Client
	dialer     *websocket.Dialer

	mu            sync.Mutex
	conn          *websocket.Conn
	socketID      string
	state         ConnState
	subs          map[string]*Subscription
	stateHandlers map[int]StateHandler
	nextStateID   int
	established   chan struct{}
	done          chan struct{}
	notify        chan ConnState
	closed        bool
}

// NewWSTransport creates a transport. wsURL is the websocket endpoint,
// authURL the broadcasting-auth endpoint, token the bearer token presented
// during channel authorization.
func NewWSTransport(wsURL, authURL, token string, opts ...WSOption) (*WSTransport, error) {
	if wsURL == "" {
		return nil, ErrEmptyURL
	}

	t := &WSTransport{
		wsURL:         wsURL,
		authURL:       authURL,
		token:         token,
		log:           slog.Default(),
		httpClient:    &http.Client{Timeout: defaultAuthTimeout},
		dialer:        websocket.DefaultDialer,
		state:         StateUninitialized,
		subs:          make(map[string]*Subscription),
		stateHandlers: make(map[int]StateHandler),
		established:   make(chan struct{}),
		done:          make(chan struct{}),
		notify:        make(chan ConnState, 16),
	}
	for _, opt := range opts {
		opt(t)
	}

	go t.notifyLoop()
	return t, nil
}

// Connect dials the endpoint and waits for the connection_established frame
// carrying the socket id.
func (t *WSTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrTransportClosed
	}
	if t.conn != nil {
		t.mu.Unlock()
		return nil
	}
	t.setStateLocked(StateConnecting)
	t.mu.Unlock()

	conn, resp, err := t.dialer.DialContext(ctx, t.wsURL, nil)
	if err != nil {
		t.mu.Lock()
		t.setStateLocked(StateError)
		t.mu.Unlock()
		return errors.Join(ErrConnectFailed, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	go t.readLoop(conn)

	select {
	case <-t.established:
		return nil
	case <-t.done:
		return ErrTransportClosed
	case <-ctx.Done():
		_ = t.Close()
		return ctx.Err()
	}
}

// Subscribe joins a channel, performing the authorization handshake first
// for private channels.
func (t *WSTransport) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	if channel == "" {
		return nil, ErrEmptyChannel
	}

	t.mu.Lock()
	if t.closed || t.conn == nil {
		t.mu.Unlock()
		return nil, ErrNotConnected
	}
	if sub, ok := t.subs[channel]; ok {
		t.mu.Unlock()
		return sub, nil
	}
	socketID := t.socketID
	t.mu.Unlock()

	data := map[string]string{"channel": channel}
	if strings.HasPrefix(channel, "private-") {
		auth, err := t.authorize(ctx, socketID, channel)
		if err != nil {
			return nil, err
		}
		data["auth"] = auth
	}

	// Register before writing so a fast server response cannot race the
	// subscription map.
	sub := NewSubscription(channel)
	t.mu.Lock()
	t.subs[channel] = sub
	t.mu.Unlock()

	if err := t.writeFrame(frame{Event: frameSubscribe, Data: mustRaw(data)}); err != nil {
		t.mu.Lock()
		delete(t.subs, channel)
		t.mu.Unlock()
		return nil, err
	}
	return sub, nil
}

// Unsubscribe leaves a channel.
func (t *WSTransport) Unsubscribe(channel string) error {
	t.mu.Lock()
	_, ok := t.subs[channel]
	delete(t.subs, channel)
	connected := t.conn != nil && !t.closed
	t.mu.Unlock()

	if !ok || !connected {
		return nil
	}
	return t.writeFrame(frame{
		Event: frameUnsubscribe,
		Data:  mustRaw(map[string]string{"channel": channel}),
	})
}

// OnStateChange registers a state transition callback.
func (t *WSTransport) OnStateChange(fn StateHandler) Binding {
	t.mu.Lock()
	id := t.nextStateID
	t.nextStateID++
	t.stateHandlers[id] = fn
	t.mu.Unlock()

	return &binding{unbind: func() {
		t.mu.Lock()
		delete(t.stateHandlers, id)
		t.mu.Unlock()
	}}
}

// State returns the current connection state.
func (t *WSTransport) State() ConnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SocketID returns the server-assigned socket id, empty until connected.
func (t *WSTransport) SocketID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.socketID
}

// Close tears the connection down.
func (t *WSTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.conn = nil
	t.setStateLocked(StateDisconnected)
	close(t.done)
	t.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (t *WSTransport) readLoop(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			if !t.closed {
				t.setStateLocked(StateDisconnected)
			}
			t.mu.Unlock()
			return
		}

		var f frame
		if err := json.Unmarshal(payload, &f); err != nil {
			t.log.Warn("realtime: dropping malformed frame", logger.Error(err))
			continue
		}
		t.handleFrame(f)
	}
}

func (t *WSTransport) handleFrame(f frame) {
	switch f.Event {
	case frameConnectionEstablished:
		var info struct {
			SocketID string `json:"socket_id"`
		}
		if err := json.Unmarshal(normalizeData(f.Data), &info); err != nil {
			t.log.Warn("realtime: bad connection_established payload", logger.Error(err))
			return
		}
		t.mu.Lock()
		t.socketID = info.SocketID
		t.setStateLocked(StateConnected)
		t.mu.Unlock()
		select {
		case <-t.established:
		default:
			close(t.established)
		}

	case framePing:
		_ = t.writeFrame(frame{Event: framePong})

	case frameError:
		t.log.Warn("realtime: server error frame", "data", string(f.Data))
		t.mu.Lock()
		t.setStateLocked(StateError)
		t.mu.Unlock()

	case frameInternalSucceeded:
		t.dispatch(f.Channel, EventSubscriptionSucceeded, normalizeData(f.Data))

	default:
		t.dispatch(f.Channel, f.Event, normalizeData(f.Data))
	}
}

func (t *WSTransport) dispatch(channel, event string, data []byte) {
	t.mu.Lock()
	sub := t.subs[channel]
	t.mu.Unlock()

	if sub == nil {
		return
	}
	sub.Dispatch(event, data)
}

// authorize performs the private-channel handshake and returns the
// signature to include in the subscribe frame.
func (t *WSTransport) authorize(ctx context.Context, socketID, channel string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"socket_id":    socketID,
		"channel_name": channel,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.authURL, bytes.NewReader(body))
	if err != nil {
		return "", errors.Join(ErrChannelAuthFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", errors.Join(ErrChannelAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrChannelAuthFailed, resp.StatusCode)
	}

	var out struct {
		Auth string `json:"auth"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Join(ErrChannelAuthFailed, err)
	}
	return out.Auth, nil
}

func (t *WSTransport) writeFrame(f frame) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil || t.closed {
		return ErrNotConnected
	}
	return t.conn.WriteMessage(websocket.TextMessage, payload)
}

// setStateLocked updates the state and queues the transition for handler
// delivery. Callers hold the mutex; handlers run on the notifier goroutine
// in transition order, off the lock, so they can call back into the
// transport.
func (t *WSTransport) setStateLocked(state ConnState) {
	if t.state == state {
		return
	}
	t.state = state

	select {
	case t.notify <- state:
	default:
		// Full queue coalesces transitions.
	}
}

func (t *WSTransport) notifyLoop() {
	deliver := func(state ConnState) {
		t.mu.Lock()
		handlers := make([]StateHandler, 0, len(t.stateHandlers))
		for _, fn := range t.stateHandlers {
			handlers = append(handlers, fn)
		}
		t.mu.Unlock()

		for _, fn := range handlers {
			fn(state)
		}
	}

	for {
		select {
		case state := <-t.notify:
			deliver(state)
		case <-t.done:
			for {
				select {
				case state := <-t.notify:
					deliver(state)
				default:
					return
				}
			}
		}
	}
}

// normalizeData unwraps the double-encoded string form some servers use for
// the data field.
func normalizeData(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return raw
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err == nil {
			return []byte(inner)
		}
	}
	return raw
}

func mustRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
