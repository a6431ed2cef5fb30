package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/properly/internal/domain"
	"github.com/nfrund/properly/internal/middleware"
)

// SessionName is the cookie session that remembers the signed-in email.
const SessionName = "properly-session"

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	userStore    domain.UserRepository
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. secureCookie marks the auth
// cookie Secure and should be true behind HTTPS.
func NewAuthHandler(userStore domain.UserRepository, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		userStore:    userStore,
		secureCookie: secureCookie,
	}
}

// RegisterPost creates an account and signs it in.
func (h *AuthHandler) RegisterPost(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email and a password of at least 8 matching characters are required.", Fields: fieldErrors(err)})
	}

	ctx := c.Request().Context()
	user := &domain.User{Email: req.Email}
	token, err := h.userStore.SignUp(ctx, user, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return c.JSON(http.StatusConflict, ErrorResponse{Error: "A user with this email already exists."})
		}
		middleware.FromContext(ctx).Error("Error creating user", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Could not create your account."})
	}

	h.signIn(c, token, req.Email)
	return c.JSON(http.StatusCreated, NewUserResponse(user))
}

// LoginPost exchanges credentials for the auth cookie.
func (h *AuthHandler) LoginPost(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email and password are required.", Fields: fieldErrors(err)})
	}

	ctx := c.Request().Context()
	user := &domain.User{Email: req.Email}
	token, err := h.userStore.SignIn(ctx, user, req.Password)
	if err != nil {
		middleware.FromContext(ctx).Warn("Failed login attempt", "email", req.Email, "error", err)
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid email or password."})
	}

	h.signIn(c, token, req.Email)
	return c.JSON(http.StatusOK, NewUserResponse(user))
}

// Logout clears the auth cookie and the session.
func (h *AuthHandler) Logout(c echo.Context) error {
	middleware.ClearAuthCookie(c)
	if sess, err := session.Get(SessionName, c); err == nil {
		sess.Options.MaxAge = -1
		_ = sess.Save(c.Request(), c.Response())
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user. It must run behind middleware.Auth.
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
	}
	return c.JSON(http.StatusOK, NewUserResponse(user))
}

func (h *AuthHandler) signIn(c echo.Context, token, email string) {
	middleware.SetAuthCookie(c, token, h.secureCookie)

	sess, err := session.Get(SessionName, c)
	if err != nil {
		middleware.FromContext(c.Request().Context()).Warn("Failed to load session", "error", err)
		return
	}
	sess.Values["email"] = email
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to save session", "error", err)
	}
}
