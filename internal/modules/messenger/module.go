package messenger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/properly/internal/domain"
	"github.com/nfrund/properly/internal/middleware"
	"github.com/nfrund/properly/internal/module"
	"github.com/nfrund/properly/internal/websocket"
	"github.com/samber/do/v2"
)

// MessengerModule serves message sending, history and the realtime socket.
type MessengerModule struct {
	module.BaseModule
	sender  Sender
	history History
	bridge  *websocket.Bridge
}

// Dependencies holds all the services that the MessengerModule requires to operate.
type Dependencies struct {
	Sender  Sender
	History History
	Bridge  *websocket.Bridge
}

// New creates a new instance of the MessengerModule, injecting its dependencies.
func New(deps Dependencies) *MessengerModule {
	return &MessengerModule{
		sender:  deps.Sender,
		history: deps.History,
		bridge:  deps.Bridge,
	}
}

// Name returns the module name.
func (m *MessengerModule) Name() string {
	return "messenger"
}

// Boot starts the websocket bridge and mounts the routes on the root group.
func (m *MessengerModule) Boot(ctx context.Context, g *echo.Group, i do.Injector) error {
	users, err := do.Invoke[domain.UserRepository](i)
	if err != nil {
		return fmt.Errorf("messenger: user store not available: %w", err)
	}
	auth := middleware.Auth(users)

	if err := m.bridge.Start(ctx); err != nil {
		return err
	}

	slog.Info("Booting MessengerModule: Setting up routes...")
	handler := NewHandler(m.sender, m.history)

	api := g.Group("/app/messenger", auth)
	api.POST("/messages", handler.CreateMessage, middleware.RateLimiter(middleware.SendLimit))
	api.GET("/messages", handler.ListMessages)

	g.GET("/ws/messenger", m.bridge.Handler(), auth)
	return nil
}

// Shutdown closes every open socket.
func (m *MessengerModule) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down MessengerModule...")
	return m.bridge.Shutdown(ctx)
}
