package handlers

import (
	"github.com/nfrund/properly/internal/domain"
)

// ErrorResponse is the body of every JSON error. Fields is set for
// validation failures, keyed by JSON field name.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// UserResponse is the public view of an account; the password never leaves the store.
type UserResponse struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
}

// NewUserResponse creates a UserResponse from a domain.User.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{ID: user.UserID(), Email: user.Email, Name: user.Name}
}
