// Package pubsub moves messages between the parts of the application that
// produce realtime events and the parts that deliver them. Two bridges are
// provided: an in-process watermill GoChannel for a single instance and a
// Redis bridge when several instances share one broadcast channel.
package pubsub

import (
	"context"
)

// Message is the structure passed between components on the bus.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g. "chat-app.new-message").
	Topic string
	// UserID identifies the user who initiated the message.
	UserID string
	// Payload contains the raw message data, usually JSON.
	Payload []byte
	// Metadata carries arbitrary key-value context such as the event name.
	Metadata map[string]string
}

// Handler processes a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher sends messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber receives messages from the bus.
type Subscriber interface {
	// Subscribe registers handler for topic and returns once the subscription
	// is active. Delivery stops when ctx is canceled or the bridge is closed.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// Bridge is both ends of the bus.
type Bridge interface {
	Publisher
	Subscriber
}

// MetaKeyEvent names the event carried on a shared channel, e.g. "new-message".
const MetaKeyEvent = "event"

const (
	// Metadata keys used to carry Message fields through the transports.
	metaKeyUserID = "user_id"
	metaKeyTopic  = "topic"
)
