// Package module defines the lifecycle every feature module follows: register
// providers on the injector, boot routes and subscribers, then shut down in
// reverse order.
package module

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"
)

// Module is a feature mounted by the server.
type Module interface {
	Name() string

	// Register adds the module's own providers to i. All modules register
	// before any boots, so Boot may invoke services provided by others.
	Register(i do.Injector) error

	// Boot mounts routes on router and starts background work tied to ctx.
	Boot(ctx context.Context, router *echo.Group, i do.Injector) error

	// Shutdown releases what Boot started. The server calls it before the
	// injector's own shutdown.
	Shutdown(ctx context.Context) error
}

// BaseModule gives no-op lifecycle methods to embed.
type BaseModule struct{}

func (BaseModule) Register(do.Injector) error                              { return nil }
func (BaseModule) Boot(context.Context, *echo.Group, do.Injector) error { return nil }
func (BaseModule) Shutdown(context.Context) error                          { return nil }
