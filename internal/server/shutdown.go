package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// waitForShutdown returns a channel that fires on an interrupt or terminate signal.
func waitForShutdown() <-chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	return quit
}

// Shutdown stops accepting requests, shuts modules down in reverse boot
// order and finally closes every service held by the injector.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.E.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}

	for i := len(s.modules) - 1; i >= 0; i-- {
		m := s.modules[i]
		if err := m.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("module %s: %w", m.Name(), err))
		}
	}

	if s.injector != nil {
		if report := s.injector.ShutdownWithContext(ctx); report != nil && !report.Succeed {
			errs = append(errs, report)
		}
	}

	if len(errs) > 0 {
		slog.Error("Shutdown finished with errors", "error", errors.Join(errs...))
		return errors.Join(errs...)
	}
	slog.Info("Shutdown complete")
	return nil
}
