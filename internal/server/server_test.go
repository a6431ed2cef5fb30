package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/properly/internal/config"
	"github.com/nfrund/properly/internal/domain"
	"github.com/nfrund/properly/internal/handlers"
	"github.com/nfrund/properly/internal/module"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorHandler_WithStackTrace(t *testing.T) {
	// --- Setup ---
	e := echo.New()

	// 1. Capture log output
	// We temporarily redirect slog's output to a buffer to inspect it.
	var logBuffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuffer, &slog.HandlerOptions{AddSource: true}))
	originalLogger := slog.Default()
	slog.SetDefault(logger)
	defer slog.SetDefault(originalLogger)

	// 2. Set up the error handler we want to test
	setupErrorHandling(e)

	// 3. Define a route that will always produce an unhandled error
	e.GET("/test-unhandled-error", func(c echo.Context) error {
		return errors.New("a deliberate unhandled error occurred")
	})
	e.GET("/test-http-error", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	// --- Act ---
	req := httptest.NewRequest(http.MethodGet, "/test-unhandled-error", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// --- Assert ---
	require.Equal(t, http.StatusInternalServerError, rec.Code, "Expected a 500 Internal Server Error response")
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "deliberate", "internal errors never reach the client")

	logOutput := logBuffer.String()
	assert.Contains(t, logOutput, "Internal Server Error (Unhandled)", "Log message should indicate an unhandled error")
	assert.Contains(t, logOutput, "error=\"a deliberate unhandled error occurred\"", "Log should contain the original error message")
	assert.Contains(t, logOutput, "stack_trace=", "Log must contain the stack_trace field")
	assert.Contains(t, logOutput, "runtime/debug/stack.go", "Stack trace should originate from the debug package")
	assert.Contains(t, logOutput, "internal/server/server_test.go", "Stack trace should point back to this test file")

	// HTTP errors keep their status and message.
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test-http-error", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.JSONEq(t, `{"error":"short and stout"}`, rec.Body.String())
}

type nopUsers struct {
	domain.UserRepository
}

func (nopUsers) Authenticate(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrInvalidCredentials
}

type recordingModule struct {
	module.BaseModule
	name   string
	events *[]string
}

func (m *recordingModule) Name() string { return m.name }

func (m *recordingModule) Register(do.Injector) error {
	*m.events = append(*m.events, "register:"+m.name)
	return nil
}

func (m *recordingModule) Boot(_ context.Context, g *echo.Group, _ do.Injector) error {
	*m.events = append(*m.events, "boot:"+m.name)
	g.GET("/"+m.name, func(c echo.Context) error { return c.String(http.StatusOK, m.name) })
	return nil
}

func (m *recordingModule) Shutdown(context.Context) error {
	*m.events = append(*m.events, "shutdown:"+m.name)
	return nil
}

type closingService struct {
	closed bool
}

func (c *closingService) Shutdown(context.Context) error {
	c.closed = true
	return nil
}

func newTestServer(t *testing.T, injector *do.RootScope) *Server {
	t.Helper()
	s, err := New(Dependencies{
		Config: &config.Config{
			SessionSecret:       "a-very-secret-key-for-testing-!",
			AppBaseURL:          "http://localhost:8080",
			StorageProvider:     "local",
			LocalStorageDir:     t.TempDir(),
			LocalStorageBaseURL: "/uploads",
		},
		UserStore: nopUsers{},
		Injector:  injector,
		Health: map[string]handlers.HealthChecker{
			"database": func(context.Context) error { return nil },
		},
	})
	require.NoError(t, err)
	s.RegisterRoutes()
	return s
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Dependencies{})
	assert.Error(t, err)

	_, err = New(Dependencies{Config: &config.Config{}, UserStore: nopUsers{}})
	assert.Error(t, err, "session secret is required")
}

func TestFrameworkRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = httptest.NewRecorder()
	s.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	s.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
}

func TestModuleLifecycle(t *testing.T) {
	injector := do.New()
	svc := &closingService{}
	do.ProvideValue(injector, svc)

	s := newTestServer(t, injector)

	var events []string
	modules := []module.Module{
		&recordingModule{name: "first", events: &events},
		&recordingModule{name: "second", events: &events},
	}
	require.NoError(t, s.InitModules(context.Background(), modules, injector))

	rec := httptest.NewRecorder()
	s.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/second", nil))
	assert.Equal(t, "second", rec.Body.String())

	require.NoError(t, s.Shutdown(context.Background()))
	assert.Equal(t, []string{
		"register:first", "register:second",
		"boot:first", "boot:second",
		"shutdown:second", "shutdown:first",
	}, events)
	assert.True(t, svc.closed, "injector services are shut down")
}
