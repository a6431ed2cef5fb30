package server

import (
	"strings"

	"github.com/nfrund/properly/internal/handlers"
	"github.com/nfrund/properly/internal/middleware"
)

// RegisterRoutes sets up the framework routes: health and authentication.
// Feature routes are mounted by modules in InitModules.
func (s *Server) RegisterRoutes() {
	authHandler := handlers.NewAuthHandler(s.UserStore, s.secureCookies())
	healthHandler := handlers.NewHealthHandler(s.health)
	rateLimiter := middleware.RateLimiter(middleware.AuthLimit)

	s.E.GET("/health", healthHandler.HealthGet)

	auth := s.E.Group("/auth")
	auth.POST("/register", authHandler.RegisterPost, rateLimiter)
	auth.POST("/login", authHandler.LoginPost, rateLimiter)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me, middleware.Auth(s.UserStore))
}

func (s *Server) secureCookies() bool {
	return strings.HasPrefix(s.Cfg.GetAppBaseURL(), "https://")
}
