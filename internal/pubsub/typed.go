package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/nfrund/properly/internal/topicmgr"
)

// Event[T] binds a topic to the payload type published on it. It implements
// topicmgr.Topic so the catalogue documents the payload fields.
type Event[T any] struct {
	topicmgr.Topic
	event string
}

// NewEvent defines a typed event on topic for module. event is copied into
// the MetaKeyEvent metadata of every published message. The payload field
// names are read from the json tags of T.
func NewEvent[T any](topic, module, event, description string) Event[T] {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	fields := make([]string, 0)
	if t.Kind() == reflect.Struct {
		for i := range t.NumField() {
			name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
			if name != "" && name != "-" {
				fields = append(fields, name)
			}
		}
	}

	return Event[T]{
		Topic: topicmgr.DefineModule(topicmgr.TopicConfig{
			Name:        topic,
			Module:      module,
			Description: description,
			Metadata: map[string]any{
				"event":          event,
				"payload_fields": fields,
				"type_name":      t.Name(),
			},
		}),
		event: event,
	}
}

// EventName returns the event tag carried in message metadata.
func (e Event[T]) EventName() string {
	return e.event
}

// Publish sends payload as JSON on the event's topic. The compiler ensures
// payload matches T.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], userID string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", event.Name(), err)
	}
	return p.Publish(ctx, Message{
		Topic:    event.Name(),
		UserID:   userID,
		Payload:  data,
		Metadata: map[string]string{MetaKeyEvent: event.event},
	})
}

// Decode unmarshals msg into T.
func Decode[T any](msg Message) (T, error) {
	var out T
	if err := json.Unmarshal(msg.Payload, &out); err != nil {
		return out, fmt.Errorf("failed to decode %s payload: %w", msg.Topic, err)
	}
	return out, nil
}
