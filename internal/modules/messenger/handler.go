package messenger

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/properly/internal/domain"
	"github.com/nfrund/properly/internal/messaging"
	"github.com/nfrund/properly/internal/middleware"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Sender runs a submission through the send pipeline.
type Sender interface {
	SendMessage(ctx context.Context, sub domain.MessageSubmission) messaging.Result
}

// History loads the messages between two users.
type History interface {
	Conversation(ctx context.Context, userID, peerID string, limit int) ([]domain.MessageView, error)
}

// Handler serves the messenger HTTP endpoints.
type Handler struct {
	sender  Sender
	history History
}

// NewHandler creates a new handler instance.
func NewHandler(sender Sender, history History) *Handler {
	return &Handler{sender: sender, history: history}
}

// CreateMessage sends a message from the authenticated user.
func (h *Handler) CreateMessage(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	req, err := bindSendMessage(c)
	if err != nil {
		middleware.FromContext(ctx).Warn("Rejected malformed message request", "error", err)
		return c.JSON(http.StatusBadRequest, messaging.Result{Error: messaging.GenericError})
	}

	res := h.sender.SendMessage(ctx, req.Submission(user.UserID()))
	c.Response().Header().Set(echo.HeaderXCorrelationID, res.CorrelationID)
	return c.JSON(statusFor(res), res)
}

// statusFor maps a send result onto an HTTP status.
func statusFor(res messaging.Result) int {
	if res.OK() {
		return http.StatusOK
	}
	if res.Failure == nil {
		return http.StatusInternalServerError
	}
	switch {
	case errors.Is(res.Failure, domain.ErrMessageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(res.Failure, context.Canceled):
		return http.StatusInternalServerError
	}
	switch res.Failure.Stage {
	case messaging.StageValidating:
		return http.StatusBadRequest
	case messaging.StageUploading:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ListMessages returns the conversation with the user named by ?with=.
func (h *Handler) ListMessages(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	peer := c.QueryParam("with")
	if peer == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Query parameter 'with' is required"})
	}

	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Query parameter 'limit' must be a positive integer"})
		}
		limit = min(n, maxHistoryLimit)
	}

	ctx := c.Request().Context()
	messages, err := h.history.Conversation(ctx, user.UserID(), peer, limit)
	if err != nil {
		middleware.FromContext(ctx).Error("Failed to load conversation", "peer", peer, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load messages"})
	}
	return c.JSON(http.StatusOK, messages)
}
