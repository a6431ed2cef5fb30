package pubsub

import "github.com/nfrund/properly/internal/config"

// TracingConfigFrom reads the PUBSUB_TRACING_* settings.
func TracingConfigFrom(cfg config.Provider) TracingConfig {
	tc := DefaultTracingConfig()
	tc.Enabled = cfg.GetPubSubTracingEnabled()
	if name := cfg.GetPubSubTracingServiceName(); name != "" {
		tc.ServiceName = name
	}
	if url := cfg.GetPubSubTracingZipkinURL(); url != "" {
		tc.ZipkinURL = url
	}
	return tc
}
