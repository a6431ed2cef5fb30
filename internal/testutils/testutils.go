package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/nfrund/properly/internal/config"
	"github.com/nfrund/properly/internal/logging"
)

// ConfigForTests loads the .env.test file and returns a valid config.Provider.
// Integration tests are skipped when the file is absent.
func ConfigForTests(t *testing.T) config.Provider {
	t.Helper()

	root := ProjectRoot(t)
	env, err := godotenv.Read(filepath.Join(root, ".env.test"))
	if err != nil {
		t.Skipf("skipping integration test: .env.test not loadable: %v", err)
	}
	for key, value := range env {
		t.Setenv(key, value)
	}

	cfg := config.FromEnv()
	logging.New(cfg.GetLogFormat(), cfg.GetLogLevel())
	return cfg
}

// ProjectRoot walks up from the working directory to the directory holding go.mod.
func ProjectRoot(t *testing.T) string {
	t.Helper()
	path, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
			return path
		}
		if path == filepath.Dir(path) {
			t.Fatalf("could not find project root with go.mod")
		}
		path = filepath.Dir(path)
	}
}
