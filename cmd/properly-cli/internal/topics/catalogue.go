package topics

import (
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/nfrund/properly/internal/config"
	"github.com/nfrund/properly/internal/realtime"
	"github.com/nfrund/properly/internal/topicmgr"
)

// Initialize builds the topic catalogue for channel. An empty channel falls
// back to BROADCAST_CHANNEL from the environment or .env file.
func Initialize(channel string) (*topicmgr.Manager, error) {
	// Keep the CLI output clean.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	if channel == "" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		channel = config.FromEnv().GetBroadcastChannel()
	}
	return Catalogue(channel)
}

// Catalogue registers every topic the service publishes on channel.
func Catalogue(channel string) (*topicmgr.Manager, error) {
	manager := topicmgr.NewManager()
	if err := manager.Register(realtime.NewMessageEvent(channel)); err != nil {
		return nil, err
	}
	return manager, nil
}

// FilterScope keeps the topics of scope.
func FilterScope(list []topicmgr.Topic, scope topicmgr.TopicScope) []topicmgr.Topic {
	var out []topicmgr.Topic
	for _, t := range list {
		if t.Scope() == scope {
			out = append(out, t)
		}
	}
	return out
}
