package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nfrund/properly/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var newMessage = Notification{
	Title: "New Message",
	Body:  "You have received a new message",
	Icon:  "https://example.com/icon.png",
}

func TestBeamsDispatcher(t *testing.T) {
	t.Run("publishes a web notification to users", func(t *testing.T) {
		var got map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/publish_api/v1/instances/inst-1/publishes/users", r.URL.Path)
			assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"publishId":"pub-1"}`))
		}))
		defer server.Close()

		d := NewBeamsDispatcher("inst-1", "s3cret", WithBeamsEndpoint(server.URL))
		require.NoError(t, d.PublishToUsers(context.Background(), []string{"user:2"}, newMessage))

		assert.Equal(t, []any{"user:2"}, got["users"])
		web := got["web"].(map[string]any)["notification"].(map[string]any)
		assert.Equal(t, "New Message", web["title"])
		assert.Equal(t, "You have received a new message", web["body"])
		assert.Equal(t, "https://example.com/icon.png", web["icon"])
	})

	t.Run("surfaces API errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized","description":"Invalid secret key"}`))
		}))
		defer server.Close()

		d := NewBeamsDispatcher("inst-1", "wrong", WithBeamsEndpoint(server.URL))
		err := d.PublishToUsers(context.Background(), []string{"user:2"}, newMessage)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid secret key")
	})

	t.Run("validates recipients before calling out", func(t *testing.T) {
		d := NewBeamsDispatcher("inst-1", "s3cret", WithBeamsEndpoint("http://127.0.0.1:0"))
		assert.ErrorIs(t, d.PublishToUsers(context.Background(), nil, newMessage), ErrNoRecipients)
		assert.ErrorIs(t, d.PublishToUsers(context.Background(), make([]string, 1001), newMessage), ErrTooManyRecipients)
		assert.Error(t, d.PublishToUsers(context.Background(), []string{""}, newMessage))
	})
}

func TestLogDispatcher(t *testing.T) {
	assert.NoError(t, LogDispatcher{}.PublishToUsers(context.Background(), []string{"user:2"}, newMessage))
	assert.ErrorIs(t, LogDispatcher{}.PublishToUsers(context.Background(), nil, newMessage), ErrNoRecipients)
}

func TestNewDispatcher(t *testing.T) {
	d, err := NewDispatcher(&config.Config{PushProvider: "log"})
	require.NoError(t, err)
	assert.IsType(t, LogDispatcher{}, d)

	d, err = NewDispatcher(&config.Config{PushProvider: "beams", BeamsInstanceID: "i", BeamsSecretKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &BeamsDispatcher{}, d)

	_, err = NewDispatcher(&config.Config{PushProvider: "beams"})
	assert.Error(t, err)
	_, err = NewDispatcher(&config.Config{PushProvider: "fcm"})
	assert.Error(t, err)
}
