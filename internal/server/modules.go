package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/properly/internal/module"
	"github.com/samber/do/v2"
)

// InitModules runs the two-phase module lifecycle: every module registers
// its services, then every module boots against the root route group.
func (s *Server) InitModules(ctx context.Context, modules []module.Module, i do.Injector) error {
	for _, m := range modules {
		if err := m.Register(i); err != nil {
			return fmt.Errorf("failed to register module %s: %w", m.Name(), err)
		}
	}

	root := s.E.Group("")
	for _, m := range modules {
		if err := m.Boot(ctx, root, i); err != nil {
			return fmt.Errorf("failed to boot module %s: %w", m.Name(), err)
		}
		slog.Info("Module booted", "module", m.Name())
		s.modules = append(s.modules, m)
	}
	return nil
}
