package pubsub

import (
	"context"
	"fmt"

	"github.com/nfrund/properly/internal/config"
	"go.opentelemetry.io/otel/trace"
)

// NewBridge returns the bridge selected by PUBSUB_DRIVER.
func NewBridge(ctx context.Context, cfg config.Provider, tracer trace.Tracer) (Bridge, error) {
	switch cfg.GetPubSubDriver() {
	case "", "memory":
		return NewWatermillBridgeWithTracer(tracer), nil
	case "redis":
		rb, err := NewRedisBridge(ctx, cfg.GetRedisAddr(), tracer)
		if err != nil {
			return nil, err
		}
		return rb, nil
	default:
		return nil, fmt.Errorf("unknown pubsub driver: %s", cfg.GetPubSubDriver())
	}
}
