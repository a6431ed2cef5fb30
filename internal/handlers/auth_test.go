package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/properly/internal/domain"
	"github.com/nfrund/properly/internal/handlers"
	"github.com/nfrund/properly/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

const testSessionSecret = "a-very-secret-key-for-testing-!"

// MockUserStore provides a mock implementation of domain.UserRepository for testing.
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) SignUp(ctx context.Context, user *domain.User, password string) (string, error) {
	args := m.Called(ctx, user, password)
	return args.String(0), args.Error(1)
}

func (m *MockUserStore) SignIn(ctx context.Context, user *domain.User, password string) (string, error) {
	args := m.Called(ctx, user, password)
	return args.String(0), args.Error(1)
}

func (m *MockUserStore) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *MockUserStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func setupAuthTest(store domain.UserRepository) *echo.Echo {
	e := echo.New()
	e.Validator = handlers.NewValidator()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(testSessionSecret))))

	h := handlers.NewAuthHandler(store, false)
	e.POST("/auth/register", h.RegisterPost)
	e.POST("/auth/login", h.LoginPost)
	e.POST("/auth/logout", h.Logout)
	e.GET("/auth/me", h.Me, middleware.Auth(store))
	return e
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRegisterPost(t *testing.T) {
	t.Run("creates the account and sets the auth cookie", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("SignUp", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "new@example.com"
		}), "password123").Return("signup-token", nil).Once()
		e := setupAuthTest(store)

		rec := postJSON(e, "/auth/register", `{"email":"new@example.com","password":"password123","password_confirm":"password123"}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"email":"new@example.com"`)
		cookie := findCookie(rec, middleware.AuthCookieName)
		if assert.NotNil(t, cookie) {
			assert.Equal(t, "signup-token", cookie.Value)
			assert.True(t, cookie.HttpOnly)
		}
		assert.NotNil(t, findCookie(rec, handlers.SessionName))
		store.AssertExpectations(t)
	})

	t.Run("mismatched passwords are rejected before the store", func(t *testing.T) {
		store := new(MockUserStore)
		e := setupAuthTest(store)

		rec := postJSON(e, "/auth/register", `{"email":"new@example.com","password":"password123","password_confirm":"password124"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"password_confirm":"eqfield"`)
		store.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("existing email is a conflict", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("SignUp", mock.Anything, mock.Anything, mock.Anything).Return("", domain.ErrUserAlreadyExists)
		e := setupAuthTest(store)

		rec := postJSON(e, "/auth/register", `{"email":"taken@example.com","password":"password123","password_confirm":"password123"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Nil(t, findCookie(rec, middleware.AuthCookieName))
	})

	t.Run("store failure is a 500", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("SignUp", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("db down"))
		e := setupAuthTest(store)

		rec := postJSON(e, "/auth/register", `{"email":"a@example.com","password":"password123","password_confirm":"password123"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestLoginPost(t *testing.T) {
	store := new(MockUserStore)
	store.On("SignIn", mock.Anything, mock.Anything, "correct-horse").Return("login-token", nil)
	store.On("SignIn", mock.Anything, mock.Anything, "wrong").Return("", domain.ErrInvalidCredentials)
	e := setupAuthTest(store)

	rec := postJSON(e, "/auth/login", `{"email":"a@example.com","password":"correct-horse"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	if cookie := findCookie(rec, middleware.AuthCookieName); assert.NotNil(t, cookie) {
		assert.Equal(t, "login-token", cookie.Value)
	}

	rec = postJSON(e, "/auth/login", `{"email":"a@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid email or password."}`, rec.Body.String())

	rec = postJSON(e, "/auth/login", `{"email":"not-an-email","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fields":{"email":"email"}`)
}

func TestLogoutAndMe(t *testing.T) {
	id := surrealmodels.NewRecordID("user", "alice")
	alice := &domain.User{ID: &id, Email: "alice@example.com"}

	store := new(MockUserStore)
	store.On("Authenticate", mock.Anything, "good-token").Return(alice, nil)
	e := setupAuthTest(store)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: "good-token"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), alice.UserID())
	assert.NotContains(t, rec.Body.String(), "password")

	rec = postJSON(e, "/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	if cookie := findCookie(rec, middleware.AuthCookieName); assert.NotNil(t, cookie) {
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	}
}
