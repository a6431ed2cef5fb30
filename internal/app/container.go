// Package app wires the process-wide services into a samber/do injector.
// Every service is built lazily on first use and shut down in reverse
// dependency order by RootScope.Shutdown.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/nfrund/properly/internal/config"
	"github.com/nfrund/properly/internal/database"
	"github.com/nfrund/properly/internal/domain"
	"github.com/nfrund/properly/internal/messaging"
	"github.com/nfrund/properly/internal/pubsub"
	"github.com/nfrund/properly/internal/push"
	"github.com/nfrund/properly/internal/realtime"
	"github.com/nfrund/properly/internal/storage"
	"github.com/nfrund/properly/internal/topicmgr"
	"github.com/nfrund/properly/internal/websocket"
	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/trace"
)

const connectTimeout = 15 * time.Second

// Tracing owns the tracer provider used by the pub/sub layer.
type Tracing struct {
	Tracer   trace.Tracer
	shutdown func(context.Context) error
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown(ctx context.Context) error {
	return t.shutdown(ctx)
}

// NewInjector registers every service provider. Nothing is constructed
// until a service is first invoked.
func NewInjector(cfg config.Provider) *do.RootScope {
	i := do.New()
	do.ProvideValue(i, cfg)

	do.Provide(i, provideConnection)
	do.Provide(i, provideUserStore)
	do.Provide(i, provideAttachmentStore)
	do.Provide(i, provideMessageStore)
	do.Provide(i, provideUploader)
	do.Provide(i, provideTracing)
	do.Provide(i, provideBridge)
	do.Provide(i, provideTopics)
	do.Provide(i, provideBroadcaster)
	do.Provide(i, provideDispatcher)
	do.Provide(i, provideMessaging)
	do.Provide(i, provideWebsocket)
	return i
}

func provideConnection(i do.Injector) (*database.Connection, error) {
	cfg := do.MustInvoke[config.Provider](i)
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	conn := database.NewConnection(cfg)
	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.ApplySchema(ctx, conn); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}
	conn.StartMonitoring()
	return conn, nil
}

func provideUserStore(i do.Injector) (domain.UserRepository, error) {
	conn, err := do.Invoke[*database.Connection](i)
	if err != nil {
		return nil, err
	}
	users, err := database.NewClient[domain.User](conn)
	if err != nil {
		return nil, err
	}
	return database.NewUserStore(conn, users), nil
}

func provideAttachmentStore(i do.Injector) (domain.AttachmentRepository, error) {
	conn, err := do.Invoke[*database.Connection](i)
	if err != nil {
		return nil, err
	}
	client, err := database.NewClient[domain.AttachmentRecord](conn)
	if err != nil {
		return nil, err
	}
	return database.NewAttachmentStore(client), nil
}

func provideMessageStore(i do.Injector) (domain.MessageRepository, error) {
	conn, err := do.Invoke[*database.Connection](i)
	if err != nil {
		return nil, err
	}
	client, err := database.NewClient[domain.MessageRecord](conn)
	if err != nil {
		return nil, err
	}
	return database.NewMessageStore(client), nil
}

func provideUploader(i do.Injector) (storage.Uploader, error) {
	return storage.NewUploader(do.MustInvoke[config.Provider](i))
}

func provideTracing(i do.Injector) (*Tracing, error) {
	cfg := pubsub.TracingConfigFrom(do.MustInvoke[config.Provider](i))
	tracer, shutdown, err := pubsub.SetupOTel(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return &Tracing{Tracer: tracer, shutdown: shutdown}, nil
}

func provideBridge(i do.Injector) (pubsub.Bridge, error) {
	tracing, err := do.Invoke[*Tracing](i)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return pubsub.NewBridge(ctx, do.MustInvoke[config.Provider](i), tracing.Tracer)
}

func provideTopics(do.Injector) (*topicmgr.Manager, error) {
	return topicmgr.NewManager(), nil
}

func provideBroadcaster(i do.Injector) (*realtime.Broadcaster, error) {
	bridge, err := do.Invoke[pubsub.Bridge](i)
	if err != nil {
		return nil, err
	}
	cfg := do.MustInvoke[config.Provider](i)
	return realtime.NewBroadcaster(bridge, cfg.GetBroadcastChannel(), do.MustInvoke[*topicmgr.Manager](i))
}

func provideDispatcher(i do.Injector) (push.Dispatcher, error) {
	return push.NewDispatcher(do.MustInvoke[config.Provider](i))
}

func provideMessaging(i do.Injector) (*messaging.Service, error) {
	deps := messaging.Dependencies{}
	var err error
	if deps.Uploader, err = do.Invoke[storage.Uploader](i); err != nil {
		return nil, err
	}
	if deps.Attachments, err = do.Invoke[domain.AttachmentRepository](i); err != nil {
		return nil, err
	}
	if deps.Messages, err = do.Invoke[domain.MessageRepository](i); err != nil {
		return nil, err
	}
	if deps.Broadcaster, err = do.Invoke[*realtime.Broadcaster](i); err != nil {
		return nil, err
	}
	if deps.Notifier, err = do.Invoke[push.Dispatcher](i); err != nil {
		return nil, err
	}
	return messaging.NewService(deps, messaging.OptionsFrom(do.MustInvoke[config.Provider](i))), nil
}

func provideWebsocket(i do.Injector) (*websocket.Bridge, error) {
	bridge, err := do.Invoke[pubsub.Bridge](i)
	if err != nil {
		return nil, err
	}
	broadcaster, err := do.Invoke[*realtime.Broadcaster](i)
	if err != nil {
		return nil, err
	}
	return websocket.NewBridge(bridge, broadcaster.Channel(), broadcaster.Topic()), nil
}
