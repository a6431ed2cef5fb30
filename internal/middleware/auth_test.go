package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/properly/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) SignUp(ctx context.Context, user *domain.User, password string) (string, error) {
	args := m.Called(ctx, user, password)
	return args.String(0), args.Error(1)
}

func (m *mockUserRepository) SignIn(ctx context.Context, user *domain.User, password string) (string, error) {
	args := m.Called(ctx, user, password)
	return args.String(0), args.Error(1)
}

func (m *mockUserRepository) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func TestAuthMiddleware(t *testing.T) {
	id := surrealmodels.NewRecordID("user", "alice")
	alice := &domain.User{ID: &id, Email: "alice@example.com"}

	store := new(mockUserRepository)
	store.On("Authenticate", mock.Anything, "good-token").Return(alice, nil)
	store.On("Authenticate", mock.Anything, "bad-token").Return(nil, domain.ErrInvalidCredentials)

	e := echo.New()
	e.GET("/app/me", func(c echo.Context) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.String(http.StatusOK, user.UserID())
	}, Auth(store))

	serve := func(cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/app/me", nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing cookie is rejected", func(t *testing.T) {
		rec := serve(nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	})

	t.Run("invalid token is rejected and cleared", func(t *testing.T) {
		rec := serve(&http.Cookie{Name: AuthCookieName, Value: "bad-token"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("Set-Cookie"), "auth_token=;")
	})

	t.Run("valid token reaches the handler", func(t *testing.T) {
		rec := serve(&http.Cookie{Name: AuthCookieName, Value: "good-token"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user:alice", rec.Body.String())
	})

	store.AssertNumberOfCalls(t, "Authenticate", 2)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	logger := FromContext(context.Background()).With("k", "v")
	assert.Same(t, logger, FromContext(WithLogger(context.Background(), logger)))
}

func TestAuthCookieHelpers(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	SetAuthCookie(c, "tok", true)
	cookie := rec.Result().Cookies()[0]
	assert.Equal(t, "tok", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)

}
