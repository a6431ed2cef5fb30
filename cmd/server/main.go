package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/nfrund/properly/internal/app"
	"github.com/nfrund/properly/internal/config"
	"github.com/nfrund/properly/internal/database"
	"github.com/nfrund/properly/internal/domain"
	"github.com/nfrund/properly/internal/handlers"
	"github.com/nfrund/properly/internal/logging"
	"github.com/nfrund/properly/internal/pubsub"
	"github.com/nfrund/properly/internal/server"
	"github.com/samber/do/v2"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.New()
	logging.New(cfg.GetLogFormat(), cfg.GetLogLevel())
	if err := cfg.Validate(); err != nil {
		return err
	}

	injector := app.NewInjector(cfg)

	conn, err := do.Invoke[*database.Connection](injector)
	if err != nil {
		injector.Shutdown()
		return err
	}
	users, err := do.Invoke[domain.UserRepository](injector)
	if err != nil {
		injector.Shutdown()
		return err
	}

	health := map[string]handlers.HealthChecker{"database": conn.HealthCheck}
	if bridge, err := do.Invoke[pubsub.Bridge](injector); err == nil {
		if hc, ok := bridge.(interface{ HealthCheck(context.Context) error }); ok {
			health["pubsub"] = hc.HealthCheck
		}
	}

	s, err := server.New(server.Dependencies{
		Config:    cfg,
		UserStore: users,
		Injector:  injector,
		Health:    health,
	})
	if err != nil {
		injector.Shutdown()
		return err
	}
	s.RegisterRoutes()

	ctx := context.Background()
	modules, err := app.NewModules(injector)
	if err != nil {
		_ = s.Shutdown(ctx)
		return err
	}
	if err := s.InitModules(ctx, modules, injector); err != nil {
		_ = s.Shutdown(ctx)
		return err
	}

	return s.Start(ctx)
}
