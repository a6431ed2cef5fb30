package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/properly/internal/domain"
)

const (
	// UserContextKey is where Auth stores the *domain.User on the echo context.
	UserContextKey = "user"
	// AuthCookieName holds the SurrealDB record-user token.
	AuthCookieName = "auth_token"
)

// Auth creates a middleware that protects routes that require authentication.
// Requests without a valid auth cookie get a JSON 401.
func Auth(store domain.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(AuthCookieName)
			if err != nil || cookie.Value == "" {
				return unauthorized(c)
			}

			ctx := c.Request().Context()
			user, err := store.Authenticate(ctx, cookie.Value)
			if err != nil || user == nil {
				FromContext(ctx).Debug("Rejected auth token", "error", err)
				ClearAuthCookie(c)
				return unauthorized(c)
			}

			c.Set(UserContextKey, user)
			logger := FromContext(ctx).With("user_id", user.UserID())
			c.SetRequest(c.Request().WithContext(WithLogger(ctx, logger)))

			return next(c)
		}
	}
}

// CurrentUser returns the user stored by Auth.
func CurrentUser(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(UserContextKey).(*domain.User)
	return user, ok && user != nil
}

// SetAuthCookie stores token in the auth cookie.
func SetAuthCookie(c echo.Context, token string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookie expires the auth cookie.
func ClearAuthCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:   AuthCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
}
