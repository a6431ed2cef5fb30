package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/properly/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

func hit(e *echo.Echo, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterByIP(t *testing.T) {
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RateLimiter(Limit{Rate: 1, Burst: 3}))

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, hit(e, "192.0.2.2:1234").Code, "request %d should be allowed", i+1)
	}

	rec := hit(e, "192.0.2.2:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Too many requests. Please try again later."}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, hit(e, "192.0.2.3:1234").Code, "other clients keep their own bucket")
}

func TestRateLimiterByUser(t *testing.T) {
	e := echo.New()
	setUser := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := surrealmodels.NewRecordID("user", c.Request().Header.Get("X-Test-User"))
			c.Set(UserContextKey, &domain.User{ID: &id})
			return next(c)
		}
	}
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, setUser, RateLimiter(Limit{Rate: 1, Burst: 1}))

	send := func(user, remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Test-User", user)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, send("alice", "192.0.2.10:1"))
	assert.Equal(t, http.StatusTooManyRequests, send("alice", "192.0.2.11:1"), "a user is limited across addresses")
	assert.Equal(t, http.StatusOK, send("bob", "192.0.2.10:1"), "a shared address does not limit other users")
}
