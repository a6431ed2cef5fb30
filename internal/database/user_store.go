package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nfrund/properly/internal/domain"
	"github.com/surrealdb/surrealdb.go"
)

// accessMethod is the DEFINE ACCESS name of the record-user access method.
const accessMethod = "account"

var _ domain.UserRepository = (*UserStore)(nil)

// UserStore handles accounts through SurrealDB record-user access. Signup,
// signin and token checks each run on their own session so the shared root
// connection keeps its credentials.
type UserStore struct {
	conn  DBConnection
	users Client[domain.User]
}

// NewUserStore creates a new UserStore.
func NewUserStore(conn DBConnection, users Client[domain.User]) *UserStore {
	return &UserStore{conn: conn, users: users}
}

// FindUserByEmail returns the user with the given email, or (nil, nil).
func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.QueryOne(ctx, "SELECT * FROM user WHERE email = $email", map[string]any{"email": email})
	if err != nil {
		return nil, WrapError(err, "failed to find user by email")
	}
	if user != nil {
		user.Password = ""
	}
	return user, nil
}

// SignUp creates the account and returns a session token.
func (s *UserStore) SignUp(ctx context.Context, user *domain.User, password string) (string, error) {
	vars := s.accessVars(user.Email, password)
	if user.Name != nil {
		vars["name"] = *user.Name
	}

	var token string
	err := s.withSession(ctx, func(db *surrealdb.DB) error {
		var err error
		token, err = db.SignUp(ctx, vars)
		return err
	})
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return "", domain.ErrUserAlreadyExists
		}
		return "", WrapError(err, "signup failed")
	}

	slog.InfoContext(ctx, "User signed up", "event", "user_signup", "email", user.Email)
	return token, nil
}

// SignIn verifies credentials and returns a session token.
func (s *UserStore) SignIn(ctx context.Context, user *domain.User, password string) (string, error) {
	var token string
	err := s.withSession(ctx, func(db *surrealdb.DB) error {
		var err error
		token, err = db.SignIn(ctx, s.accessVars(user.Email, password))
		return err
	})
	if err != nil {
		slog.DebugContext(ctx, "Sign in rejected", "event", "user_signin_failure", "email", user.Email, "error", err)
		return "", domain.ErrInvalidCredentials
	}
	return token, nil
}

// Authenticate validates a session token and returns the associated user.
func (s *UserStore) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	var user *domain.User
	err := s.withSession(ctx, func(db *surrealdb.DB) error {
		if err := db.Authenticate(ctx, token); err != nil {
			return domain.ErrInvalidCredentials
		}
		found, err := QueryOne[domain.User](ctx, db, "SELECT * FROM $auth", nil)
		if err != nil {
			return fmt.Errorf("failed to get authenticated user: %w", err)
		}
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if user == nil || user.ID == nil {
		return nil, domain.ErrInvalidCredentials
	}
	user.Password = ""
	return user, nil
}

func (s *UserStore) accessVars(email, password string) map[string]any {
	return map[string]any{
		"ns":       s.conn.GetDBNs(),
		"db":       s.conn.GetDBDb(),
		"ac":       accessMethod,
		"email":    email,
		"password": password,
	}
}

func (s *UserStore) withSession(ctx context.Context, fn func(*surrealdb.DB) error) error {
	db, err := s.conn.Session(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(ctx) }()
	return fn(db)
}
