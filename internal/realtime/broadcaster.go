// Package realtime publishes chat events on the shared broadcast channel
// that websocket clients listen on.
package realtime

import (
	"context"
	"fmt"

	"github.com/nfrund/properly/internal/domain"
	"github.com/nfrund/properly/internal/pubsub"
	"github.com/nfrund/properly/internal/topicmgr"
)

const (
	// EventNewMessage is the event tag of a persisted chat message.
	EventNewMessage = "new-message"
	// ModuleName owns the messenger topics in the topic catalogue.
	ModuleName = "messenger"
)

// NewMessageEvent defines the new-message event on channel. The pub/sub
// topic is "<channel>.new-message".
func NewMessageEvent(channel string) pubsub.Event[domain.MessageView] {
	return pubsub.NewEvent[domain.MessageView](
		channel+"."+EventNewMessage,
		ModuleName,
		EventNewMessage,
		"A chat message was persisted; payload is the stored message",
	)
}

// Broadcaster publishes new messages on a single shared channel. Delivery
// is fire-and-forget; nothing is retried or acknowledged.
type Broadcaster struct {
	pub     pubsub.Publisher
	channel string
	event   pubsub.Event[domain.MessageView]
}

// NewBroadcaster registers the channel's topic with topics and returns a
// broadcaster publishing on it.
func NewBroadcaster(pub pubsub.Publisher, channel string, topics *topicmgr.Manager) (*Broadcaster, error) {
	event := NewMessageEvent(channel)
	if topics != nil {
		if err := topics.Ensure(event); err != nil {
			return nil, fmt.Errorf("failed to register broadcast topic: %w", err)
		}
	}
	return &Broadcaster{pub: pub, channel: channel, event: event}, nil
}

// Channel returns the broadcast channel name.
func (b *Broadcaster) Channel() string {
	return b.channel
}

// Topic returns the pub/sub topic new messages are published on.
func (b *Broadcaster) Topic() string {
	return b.event.Name()
}

// BroadcastNewMessage publishes msg as a new-message event.
func (b *Broadcaster) BroadcastNewMessage(ctx context.Context, msg domain.MessageView) error {
	if err := pubsub.Publish(ctx, b.pub, b.event, msg.SenderID, msg); err != nil {
		return fmt.Errorf("failed to broadcast %s on %s: %w", EventNewMessage, b.channel, err)
	}
	return nil
}
