// Package push delivers out-of-band notifications to a user's registered
// browser or device endpoints.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxUsersPerPublish is the Beams limit on user ids in one publish request.
const maxUsersPerPublish = 1000

var (
	// ErrNoRecipients is returned when PublishToUsers gets no user ids.
	ErrNoRecipients = errors.New("push: no recipients")
	// ErrTooManyRecipients is returned above the per-request user limit.
	ErrTooManyRecipients = errors.New("push: too many recipients")
)

// Notification is the web notification shown to the recipient.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
}

// Dispatcher publishes a notification to every endpoint registered for the
// given users.
type Dispatcher interface {
	PublishToUsers(ctx context.Context, userIDs []string, n Notification) error
}

func checkRecipients(userIDs []string) error {
	switch {
	case len(userIDs) == 0:
		return ErrNoRecipients
	case len(userIDs) > maxUsersPerPublish:
		return fmt.Errorf("%w: %d > %d", ErrTooManyRecipients, len(userIDs), maxUsersPerPublish)
	}
	for _, id := range userIDs {
		if id == "" {
			return fmt.Errorf("push: empty user id")
		}
	}
	return nil
}

// --- LogDispatcher (for development) ---

// LogDispatcher logs notifications instead of sending them.
type LogDispatcher struct{}

// PublishToUsers logs the notification.
func (LogDispatcher) PublishToUsers(ctx context.Context, userIDs []string, n Notification) error {
	if err := checkRecipients(userIDs); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Push notification (logged)", "users", userIDs, "title", n.Title, "body", n.Body, "icon", n.Icon)
	return nil
}

// --- BeamsDispatcher (for production) ---

// BeamsDispatcher publishes through the Pusher Beams publish API.
type BeamsDispatcher struct {
	instanceID string
	secretKey  string
	endpoint   string
	client     *http.Client
}

// BeamsOption configures a BeamsDispatcher.
type BeamsOption func(*BeamsDispatcher)

// WithBeamsEndpoint overrides the API root, e.g. with a test server URL.
func WithBeamsEndpoint(u string) BeamsOption {
	return func(b *BeamsDispatcher) { b.endpoint = u }
}

// NewBeamsDispatcher creates a dispatcher for the given Beams instance.
func NewBeamsDispatcher(instanceID, secretKey string, opts ...BeamsOption) *BeamsDispatcher {
	b := &BeamsDispatcher{
		instanceID: instanceID,
		secretKey:  secretKey,
		endpoint:   fmt.Sprintf("https://%s.pushnotifications.pusher.com", instanceID),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type beamsPayload struct {
	Users []string `json:"users"`
	Web   struct {
		Notification Notification `json:"notification"`
	} `json:"web"`
}

type beamsResponse struct {
	PublishID   string `json:"publishId"`
	Error       string `json:"error"`
	Description string `json:"description"`
}

// PublishToUsers sends n to every web endpoint of userIDs.
func (b *BeamsDispatcher) PublishToUsers(ctx context.Context, userIDs []string, n Notification) error {
	if err := checkRecipients(userIDs); err != nil {
		return err
	}

	var payload beamsPayload
	payload.Users = userIDs
	payload.Web.Notification = n

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal beams payload: %w", err)
	}

	url := fmt.Sprintf("%s/publish_api/v1/instances/%s/publishes/users", b.endpoint, b.instanceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create beams request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to beams: %w", err)
	}
	defer resp.Body.Close()

	var out beamsResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode >= 400 {
		if out.Error != "" {
			return fmt.Errorf("beams API returned an error: status %d: %s: %s", resp.StatusCode, out.Error, out.Description)
		}
		return fmt.Errorf("beams API returned an error: status %d", resp.StatusCode)
	}

	slog.DebugContext(ctx, "Published push notification via Beams", "users", len(userIDs), "publish_id", out.PublishID)
	return nil
}
