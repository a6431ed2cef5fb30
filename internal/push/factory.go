package push

import (
	"fmt"

	"github.com/nfrund/properly/internal/config"
)

// NewDispatcher returns the dispatcher selected by PUSH_PROVIDER.
func NewDispatcher(cfg config.Provider) (Dispatcher, error) {
	switch cfg.GetPushProvider() {
	case "log":
		return LogDispatcher{}, nil
	case "beams":
		if cfg.GetBeamsInstanceID() == "" || cfg.GetBeamsSecretKey() == "" {
			return nil, fmt.Errorf("push provider is 'beams' but BEAMS_INSTANCE_ID or BEAMS_SECRET_KEY is not set")
		}
		return NewBeamsDispatcher(cfg.GetBeamsInstanceID(), cfg.GetBeamsSecretKey()), nil
	default:
		return nil, fmt.Errorf("unknown push provider: %s", cfg.GetPushProvider())
	}
}
