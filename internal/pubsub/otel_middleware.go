package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// spanAttrs describes one message for a publish or process span. Payloads are
// chat content and never become attributes; only their size does.
func spanAttrs(system, operation, topic, event, userID string, size int) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String("messaging.system", system),
		attribute.String("messaging.operation", operation),
		attribute.String("messaging.destination", topic),
		attribute.String("messaging.event", event),
		attribute.String("user.id", userID),
		attribute.Int("messaging.message_payload_size_bytes", size),
	)
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func msgContext(msg *message.Message) context.Context {
	if ctx := msg.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// TracingMiddleware wraps a watermill handler in a span per delivered message.
func TracingMiddleware(tracer trace.Tracer) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			topic := msg.Metadata.Get(metaKeyTopic)
			ctx, span := tracer.Start(msgContext(msg), "pubsub.process."+topic,
				spanAttrs("watermill", "process", topic, msg.Metadata.Get(MetaKeyEvent), msg.Metadata.Get(metaKeyUserID), len(msg.Payload)),
				trace.WithAttributes(attribute.String("messaging.message_id", msg.UUID)),
			)
			defer span.End()
			msg.SetContext(ctx)

			produced, err := h(msg)
			if err != nil {
				failSpan(span, err)
				return nil, err
			}
			return produced, nil
		}
	}
}

// PublisherTracingMiddleware starts a span for every message it publishes.
type PublisherTracingMiddleware struct {
	publisher message.Publisher
	tracer    trace.Tracer
}

// NewPublisherTracingMiddleware wraps publisher.
func NewPublisherTracingMiddleware(publisher message.Publisher, tracer trace.Tracer) *PublisherTracingMiddleware {
	return &PublisherTracingMiddleware{publisher: publisher, tracer: tracer}
}

// Publish records a span per message and publishes them in one call.
func (p *PublisherTracingMiddleware) Publish(topic string, messages ...*message.Message) error {
	spans := make([]trace.Span, 0, len(messages))
	for _, msg := range messages {
		ctx, span := p.tracer.Start(msgContext(msg), "pubsub.publish."+topic,
			spanAttrs("watermill", "publish", topic, msg.Metadata.Get(MetaKeyEvent), msg.Metadata.Get(metaKeyUserID), len(msg.Payload)),
			trace.WithAttributes(attribute.String("messaging.message_id", msg.UUID)),
		)
		msg.SetContext(ctx)
		spans = append(spans, span)
	}

	err := p.publisher.Publish(topic, messages...)
	for _, span := range spans {
		if err != nil {
			failSpan(span, err)
		}
		span.End()
	}
	return err
}

func (p *PublisherTracingMiddleware) Close() error {
	return p.publisher.Close()
}
