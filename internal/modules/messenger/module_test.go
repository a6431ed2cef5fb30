package messenger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/properly/internal/domain"
	"github.com/nfrund/properly/internal/middleware"
	"github.com/nfrund/properly/internal/pubsub"
	"github.com/nfrund/properly/internal/websocket"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubUsers struct {
	domain.UserRepository
	mock.Mock
}

func (s *stubUsers) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	args := s.Called(ctx, token)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func TestModuleBoot(t *testing.T) {
	ps := pubsub.NewWatermillBridge()
	defer ps.Close()

	users := &stubUsers{}
	users.On("Authenticate", mock.Anything, "good").Return(testUser(), nil)

	injector := do.New()
	do.ProvideValue[domain.UserRepository](injector, users)

	history := new(mockHistory)
	history.On("Conversation", mock.Anything, testUser().UserID(), "user:bob", defaultHistoryLimit).Return([]domain.MessageView{}, nil)

	m := New(Dependencies{
		Sender:  new(mockSender),
		History: history,
		Bridge:  websocket.NewBridge(ps, "chat-app", "chat-app.new-message"),
	})
	assert.Equal(t, "messenger", m.Name())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := echo.New()
	require.NoError(t, m.Register(injector))
	require.NoError(t, m.Boot(ctx, e.Group(""), injector))

	t.Run("routes require authentication", func(t *testing.T) {
		for _, path := range []string{"/app/messenger/messages?with=user:bob", "/ws/messenger"} {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		}
	})

	t.Run("authenticated history request reaches the handler", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/app/messenger/messages?with=user:bob", nil)
		req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: "good"})
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		history.AssertExpectations(t)
	})

	require.NoError(t, m.Shutdown(ctx))
}

func TestModuleBootWithoutUserStore(t *testing.T) {
	m := New(Dependencies{Bridge: websocket.NewBridge(pubsub.NewWatermillBridge(), "chat-app", "chat-app.new-message")})
	err := m.Boot(context.Background(), echo.New().Group(""), do.New())
	assert.Error(t, err)
}
