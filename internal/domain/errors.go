package domain

import "errors"

// Account errors.
var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials provided")
	ErrNotFound           = errors.New("requested resource not found")
)

// Send errors. Callers match them with errors.Is; the messaging service wraps
// them with the failing stage.
var (
	ErrEmptyMessage     = errors.New("message has no content and no attachments")
	ErrMessageTooLarge  = errors.New("message exceeds size limit")
	ErrMissingTimestamp = errors.New("message timestamp is required")
)
