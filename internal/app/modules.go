package app

import (
	"github.com/nfrund/properly/internal/messaging"
	"github.com/nfrund/properly/internal/module"
	"github.com/nfrund/properly/internal/modules/messenger"
	"github.com/nfrund/properly/internal/websocket"
	"github.com/samber/do/v2"
)

// NewModules creates and returns the list of all active modules for the application.
// This is the single source of truth for which features are enabled.
func NewModules(i do.Injector) ([]module.Module, error) {
	service, err := do.Invoke[*messaging.Service](i)
	if err != nil {
		return nil, err
	}
	bridge, err := do.Invoke[*websocket.Bridge](i)
	if err != nil {
		return nil, err
	}

	return []module.Module{
		// Add new application modules here.
		messenger.New(messenger.Dependencies{
			Sender:  service,
			History: service,
			Bridge:  bridge,
		}),
	}, nil
}
