package server

import (
	"errors"
	"fmt"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/properly/internal/config"
	"github.com/nfrund/properly/internal/domain"
	"github.com/nfrund/properly/internal/handlers"
	appmiddleware "github.com/nfrund/properly/internal/middleware"
	"github.com/nfrund/properly/internal/module"
	"github.com/samber/do/v2"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E         *echo.Echo
	Cfg       config.Provider
	UserStore domain.UserRepository

	injector *do.RootScope
	health   map[string]handlers.HealthChecker
	modules  []module.Module
}

// Dependencies are the services the server itself needs. Module services
// are reached through Injector.
type Dependencies struct {
	Config    config.Provider
	UserStore domain.UserRepository
	Injector  *do.RootScope
	// Health lists the checks run by GET /health.
	Health map[string]handlers.HealthChecker
	// Echo is optional; a new instance is created when nil.
	Echo *echo.Echo
}

// New creates a new Server instance with the global middleware chain installed.
func New(deps Dependencies) (*Server, error) {
	if deps.Config == nil {
		return nil, errors.New("server: config is required")
	}
	if deps.UserStore == nil {
		return nil, errors.New("server: user store is required")
	}
	if deps.Config.GetSessionSecret() == "" {
		return nil, fmt.Errorf("server: SESSION_SECRET is required")
	}

	e := deps.Echo
	if e == nil {
		e = echo.New()
	}
	e.HideBanner = true
	e.Validator = handlers.NewValidator()

	e.Use(middleware.RequestID())
	e.Use(appmiddleware.Logger)
	e.Use(middleware.Recover())

	store := sessions.NewCookieStore([]byte(deps.Config.GetSessionSecret()))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
	}
	e.Use(session.Middleware(store))

	setupErrorHandling(e)

	// Local uploads are served from disk; remote providers return absolute URLs.
	if deps.Config.GetStorageProvider() == "local" {
		e.Static(deps.Config.GetLocalStorageBaseURL(), deps.Config.GetLocalStorageDir())
	}

	return &Server{
		E:         e,
		Cfg:       deps.Config,
		UserStore: deps.UserStore,
		injector:  deps.Injector,
		health:    deps.Health,
	}, nil
}
