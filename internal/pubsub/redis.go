package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ErrBridgeClosed is returned by operations on a closed RedisBridge.
var ErrBridgeClosed = errors.New("pubsub bridge is closed")

// redisEnvelope is the wire form of a Message on a Redis channel.
type redisEnvelope struct {
	Topic    string            `json:"topic"`
	UserID   string            `json:"user_id,omitempty"`
	Payload  json.RawMessage   `json:"payload"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RedisBridge implements Bridge with Redis PUBLISH/SUBSCRIBE so every
// application instance sees every broadcast. Delivery is at-most-once.
type RedisBridge struct {
	client *redis.Client
	tracer trace.Tracer

	mu     sync.Mutex
	subs   []*redis.PubSub
	closed bool
}

var _ Bridge = (*RedisBridge)(nil)

// NewRedisBridge connects to addr and verifies the server answers.
func NewRedisBridge(ctx context.Context, addr string, tracer trace.Tracer) (*RedisBridge, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewRedisBridgeFromClient(client, tracer), nil
}

// NewRedisBridgeFromClient wraps an existing client. The bridge takes
// ownership and closes it on Close.
func NewRedisBridgeFromClient(client *redis.Client, tracer trace.Tracer) *RedisBridge {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(tracerName)
	}
	return &RedisBridge{client: client, tracer: tracer}
}

// Publish implements Publisher. Payloads must be valid JSON.
func (rb *RedisBridge) Publish(ctx context.Context, msg Message) error {
	if rb.isClosed() {
		return ErrBridgeClosed
	}
	if !json.Valid(msg.Payload) {
		return fmt.Errorf("redis bridge only carries JSON payloads (topic %s)", msg.Topic)
	}

	ctx, span := rb.tracer.Start(ctx, "pubsub.publish."+msg.Topic,
		spanAttrs("redis", "publish", msg.Topic, msg.Metadata[MetaKeyEvent], msg.UserID, len(msg.Payload)))
	defer span.End()

	data, err := json.Marshal(redisEnvelope{
		Topic:    msg.Topic,
		UserID:   msg.UserID,
		Payload:  msg.Payload,
		Metadata: msg.Metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	if err := rb.client.Publish(ctx, msg.Topic, data).Err(); err != nil {
		failSpan(span, err)
		return fmt.Errorf("failed to publish to %s: %w", msg.Topic, err)
	}
	return nil
}

// Subscribe implements Subscriber. It returns once Redis has confirmed the
// subscription, so messages published afterwards are not missed.
func (rb *RedisBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	if rb.isClosed() {
		return ErrBridgeClosed
	}

	ps := rb.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	rb.mu.Lock()
	rb.subs = append(rb.subs, ps)
	rb.mu.Unlock()

	ch := ps.Channel()
	go func() {
		defer ps.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-ch:
				if !ok {
					slog.Debug("Subscription message loop ended", "topic", topic)
					return
				}
				rb.deliver(ctx, topic, raw.Payload, handler)
			}
		}
	}()
	return nil
}

func (rb *RedisBridge) deliver(ctx context.Context, topic, raw string, handler Handler) {
	var env redisEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		slog.Warn("Dropping malformed pubsub message", "topic", topic, "error", err)
		return
	}

	ctx, span := rb.tracer.Start(ctx, "pubsub.process."+topic,
		spanAttrs("redis", "process", topic, env.Metadata[MetaKeyEvent], env.UserID, len(env.Payload)))
	defer span.End()

	msg := Message{Topic: env.Topic, UserID: env.UserID, Payload: env.Payload, Metadata: env.Metadata}
	if msg.Topic == "" {
		msg.Topic = topic
	}
	if err := handler(ctx, msg); err != nil {
		failSpan(span, err)
		slog.Error("Failed to handle message", "topic", topic, "error", err)
	}
}

func (rb *RedisBridge) isClosed() bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.closed
}

// Close ends every subscription and closes the Redis client.
func (rb *RedisBridge) Close() error {
	rb.mu.Lock()
	if rb.closed {
		rb.mu.Unlock()
		return nil
	}
	rb.closed = true
	subs := rb.subs
	rb.subs = nil
	rb.mu.Unlock()

	var errs []error
	for _, ps := range subs {
		if err := ps.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			errs = append(errs, err)
		}
	}
	errs = append(errs, rb.client.Close())
	return errors.Join(errs...)
}

// Shutdown lets the dependency container close the bridge.
func (rb *RedisBridge) Shutdown(context.Context) error {
	return rb.Close()
}

// HealthCheck pings the Redis server.
func (rb *RedisBridge) HealthCheck(ctx context.Context) error {
	if rb.isClosed() {
		return ErrBridgeClosed
	}
	return rb.client.Ping(ctx).Err()
}
