package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

type contextKey string

const loggerKey = contextKey("logger")

// Logger puts a logger tagged with the request and correlation ids into the
// request context and logs one line per completed request. Place it after
// the RequestID middleware.
func Logger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		reqID := c.Response().Header().Get(echo.HeaderXRequestID)
		logger := slog.Default().With("request_id", reqID)
		if corr := req.Header.Get(echo.HeaderXCorrelationID); corr != "" {
			logger = logger.With("correlation_id", corr)
		}
		c.SetRequest(req.WithContext(WithLogger(req.Context(), logger)))

		start := time.Now()
		err := next(c)
		if err != nil {
			// Let the error handler write the response before reading the status.
			c.Error(err)
		}

		// Auth may have replaced the logger with one carrying the user id.
		FromContext(c.Request().Context()).Debug("Request completed",
			"method", req.Method,
			"path", c.Path(),
			"status", c.Response().Status,
			"latency_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the request-scoped logger, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
