// Package websocket delivers broadcast chat events to connected browsers.
// Clients only receive; anything they send is discarded.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/properly/internal/domain"
	"github.com/nfrund/properly/internal/middleware"
	"github.com/nfrund/properly/internal/pubsub"
)

const writeWait = 10 * time.Second

// Bridge subscribes to the broadcast topic and forwards every new message
// to the connections of its sender and receiver.
type Bridge struct {
	sub     pubsub.Subscriber
	channel string
	topic   string
	origins []string

	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithOriginPatterns allows cross-origin upgrades from the given host patterns.
func WithOriginPatterns(patterns ...string) Option {
	return func(b *Bridge) { b.origins = append(b.origins, patterns...) }
}

// NewBridge creates a bridge relaying topic, which carries events of channel.
func NewBridge(sub pubsub.Subscriber, channel, topic string, opts ...Option) *Bridge {
	b := &Bridge{
		sub:     sub,
		channel: channel,
		topic:   topic,
		clients: make(map[string]map[*Client]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start subscribes to the broadcast topic until ctx is canceled.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.sub.Subscribe(ctx, b.topic, b.handle); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.topic, err)
	}
	slog.Info("Websocket bridge listening", "topic", b.topic)
	return nil
}

func (b *Bridge) handle(ctx context.Context, msg pubsub.Message) error {
	logger := middleware.FromContext(ctx)
	// A payload that does not decode now never will, so it is dropped
	// rather than returned for redelivery.
	view, err := pubsub.Decode[domain.MessageView](msg)
	if err != nil {
		logger.Warn("Dropping undecodable broadcast", "topic", msg.Topic, "error", err)
		return nil
	}
	frame, err := json.Marshal(Frame{
		Channel: b.channel,
		Event:   msg.Metadata[pubsub.MetaKeyEvent],
		Data:    msg.Payload,
	})
	if err != nil {
		logger.Warn("Dropping broadcast that cannot be framed", "topic", msg.Topic, "message_id", view.ID, "error", err)
		return nil
	}
	n := b.deliver(frame, view.SenderID, view.ReceiverID)
	logger.Debug("Relayed broadcast", "message_id", view.ID, "connections", n)
	return nil
}

// deliver queues frame on every connection of the given users and returns
// how many connections accepted it.
func (b *Bridge) deliver(frame []byte, userIDs ...string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	seen := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		for c := range b.clients[id] {
			if c.enqueue(frame) {
				delivered++
			}
		}
	}
	return delivered
}

func (b *Bridge) register(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.clients[c.UserID] == nil {
		b.clients[c.UserID] = make(map[*Client]struct{})
	}
	b.clients[c.UserID][c] = struct{}{}
	slog.Info("Client registered", "user_id", c.UserID)
}

func (b *Bridge) unregister(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if conns, ok := b.clients[c.UserID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(b.clients, c.UserID)
		}
	}
	c.close()
	slog.Info("Client unregistered", "user_id", c.UserID)
}

// Connections returns the number of open connections of userID.
func (b *Bridge) Connections(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[userID])
}

// Handler upgrades an authenticated request and serves it until the
// connection closes. It must run behind middleware.Auth.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			OriginPatterns: b.origins,
		})
		if err != nil {
			middleware.FromContext(c.Request().Context()).Error("Failed to upgrade connection to WebSocket", "error", err)
			return nil
		}

		client := newClient(user.UserID(), conn)
		b.register(client)
		defer b.unregister(client)

		b.writePump(c.Request().Context(), client)
		return nil
	}
}

// writePump writes queued frames until the client goes away, the request
// ends or the bridge drops the client.
func (b *Bridge) writePump(ctx context.Context, c *Client) {
	// Reads are discarded; the returned context ends when the peer closes.
	ctx = c.conn.CloseRead(ctx)

	for {
		select {
		case <-ctx.Done():
			c.conn.Close(websocket.StatusNormalClosure, "")
			return
		case frame, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(wctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					slog.Error("WebSocket write error", "user_id", c.UserID, "error", err)
				}
				return
			}
		}
	}
}

// Shutdown closes every connection.
func (b *Bridge) Shutdown(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, conns := range b.clients {
		for c := range conns {
			c.close()
		}
	}
	return nil
}
