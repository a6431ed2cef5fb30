package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// Limit is a token bucket: Rate requests per second refilling a bucket of Burst.
type Limit struct {
	Rate  rate.Limit
	Burst int
}

var (
	// AuthLimit guards register and login against credential stuffing.
	AuthLimit = Limit{Rate: 10, Burst: 10}
	// SendLimit guards message sends; uploads make each request expensive.
	SendLimit = Limit{Rate: 2, Burst: 5}
)

// RateLimiter returns an in-memory limiter for l. Authenticated requests are
// counted per user, anonymous ones per client IP. Counts are per instance.
func RateLimiter(l Limit) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:  l.Rate,
			Burst: l.Burst,
		}),
		IdentifierExtractor: rateLimitKey,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			FromContext(c.Request().Context()).Warn("Rate limit exceeded", "event", "rate_limited", "key", identifier, "path", c.Path())
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many requests. Please try again later."})
		},
	})
}

func rateLimitKey(c echo.Context) (string, error) {
	if user, ok := CurrentUser(c); ok {
		return "user:" + user.UserID(), nil
	}
	return "ip:" + c.RealIP(), nil
}
