package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dragonlab/mimokit/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local development tool; any origin may connect.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsConn is one connected socket with its joined channels.
type wsConn struct {
	conn     *websocket.Conn
	socketID string

	mu      sync.Mutex
	joined  map[string]struct{}
	writeMu sync.Mutex
}

func (c *wsConn) writeFrame(f pushFrame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(f)
}

func (c *wsConn) join(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joined[channel] = struct{}{}
}

func (c *wsConn) leave(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.joined, channel)
}

func (c *wsConn) isJoined(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.joined[channel]
	return ok
}

func (a *api) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Warn("websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	c := &wsConn{
		conn:     conn,
		socketID: uuid.New().String(),
		joined:   make(map[string]struct{}),
	}

	established, _ := json.Marshal(map[string]string{"socket_id": c.socketID})
	if err := c.writeFrame(pushFrame{
		Event: "pusher:connection_established",
		Data:  established,
	}); err != nil {
		return
	}

	a.log.Info("socket connected", "socket_id", c.socketID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go a.forwardEvents(ctx, c)

	a.readLoop(c)
	a.log.Info("socket disconnected", "socket_id", c.socketID)
}

// forwardEvents relays published frames to the socket, filtered to the
// channels it joined.
func (a *api) forwardEvents(ctx context.Context, c *wsConn) {
	sub := a.broker.Subscribe(ctx)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-sub.Receive(ctx):
			if !ok {
				return
			}
			if !c.isJoined(frame.Channel) {
				continue
			}
			if err := c.writeFrame(frame); err != nil {
				return
			}
		}
	}
}

func (a *api) readLoop(c *wsConn) {
	for {
		var f pushFrame
		if err := c.conn.ReadJSON(&f); err != nil {
			return
		}

		switch f.Event {
		case "pusher:subscribe":
			var data struct {
				Channel string `json:"channel"`
			}
			if err := json.Unmarshal(f.Data, &data); err != nil || data.Channel == "" {
				continue
			}
			c.join(data.Channel)
			_ = c.writeFrame(pushFrame{
				Event:   "pusher_internal:subscription_succeeded",
				Channel: data.Channel,
				Data:    json.RawMessage(`{}`),
			})
			a.log.Info("socket subscribed",
				"socket_id", c.socketID,
				logger.Channel(data.Channel),
			)

		case "pusher:unsubscribe":
			var data struct {
				Channel string `json:"channel"`
			}
			if err := json.Unmarshal(f.Data, &data); err != nil || data.Channel == "" {
				continue
			}
			c.leave(data.Channel)

		case "pusher:ping":
			_ = c.writeFrame(pushFrame{Event: "pusher:pong"})
		}
	}
}
