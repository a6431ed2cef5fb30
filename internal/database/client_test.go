package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nfrund/properly/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go"
)

// mockExecutor is a testify mock for QueryExecutor[T].
type mockExecutor[T any] struct {
	mock.Mock
}

func (m *mockExecutor[T]) Query(ctx context.Context, query string, params map[string]any) ([]T, error) {
	args := m.Called(ctx, query, params)
	rows, _ := args.Get(0).([]T)
	return rows, args.Error(1)
}

func (m *mockExecutor[T]) QueryOne(ctx context.Context, query string, params map[string]any) (*T, error) {
	args := m.Called(ctx, query, params)
	row, _ := args.Get(0).(*T)
	return row, args.Error(1)
}

func (m *mockExecutor[T]) Execute(ctx context.Context, query string, params map[string]any) error {
	args := m.Called(ctx, query, params)
	return args.Error(0)
}

// stubConnection satisfies DBConnection with fixed timeouts and no socket.
type stubConnection struct {
	queryTimeout   time.Duration
	executeTimeout time.Duration
}

func (s stubConnection) WithConnection(context.Context, func(*surrealdb.DB) error) error {
	return NewDBError(ErrNotConnected, "stub")
}
func (s stubConnection) Session(context.Context) (*surrealdb.DB, error) {
	return nil, NewDBError(ErrNotConnected, "stub")
}
func (s stubConnection) Close(context.Context) error { return nil }
func (s stubConnection) IsHealthy() bool { return false }
func (s stubConnection) GetDBNs() string { return "test" }
func (s stubConnection) GetDBDb() string { return "test" }
func (s stubConnection) GetDBQueryTimeout() time.Duration { return s.queryTimeout }
func (s stubConnection) GetDBExecuteTimeout() time.Duration { return s.executeTimeout }

func newTestClient[T any](t *testing.T) (Client[T], *mockExecutor[T]) {
	t.Helper()
	exec := &mockExecutor[T]{}
	c, err := NewClient[T](stubConnection{queryTimeout: time.Second, executeTimeout: time.Second}, WithExecutor[T](exec))
	require.NoError(t, err)
	return c, exec
}

func TestNewClientRejectsBadTimeouts(t *testing.T) {
	_, err := NewClient[domain.MessageRecord](nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewClient[domain.MessageRecord](stubConnection{executeTimeout: time.Second})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewClient[domain.MessageRecord](stubConnection{queryTimeout: time.Second})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClientCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("passes table and data as parameters", func(t *testing.T) {
		c, exec := newTestClient[domain.MessageRecord](t)
		want := &domain.MessageRecord{Content: "hi"}
		exec.On("QueryOne", mock.Anything, "CREATE type::table($table) CONTENT $data", mock.MatchedBy(func(p map[string]any) bool {
			return p["table"] == "message" && p["data"] != nil
		})).Return(want, nil).Once()

		got, err := c.Create(ctx, "message", map[string]any{"content": "hi"})
		require.NoError(t, err)
		assert.Same(t, want, got)
		exec.AssertExpectations(t)
	})

	t.Run("validates input", func(t *testing.T) {
		c, exec := newTestClient[domain.MessageRecord](t)
		_, err := c.Create(ctx, "", map[string]any{})
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = c.Create(ctx, "message", nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
		exec.AssertNotCalled(t, "QueryOne", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("wraps driver errors", func(t *testing.T) {
		c, exec := newTestClient[domain.MessageRecord](t)
		boom := errors.New("boom")
		exec.On("QueryOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom).Once()

		_, err := c.Create(ctx, "message", map[string]any{})
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		var dbErr *DBError
		assert.ErrorAs(t, err, &dbErr)
	})

	t.Run("empty result is an error", func(t *testing.T) {
		c, exec := newTestClient[domain.MessageRecord](t)
		exec.On("QueryOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Once()

		_, err := c.Create(ctx, "message", map[string]any{})
		assert.ErrorIs(t, err, ErrQueryFailed)
	})
}

func TestClientSelect(t *testing.T) {
	ctx := context.Background()
	c, exec := newTestClient[domain.AttachmentRecord](t)

	exec.On("QueryOne", mock.Anything, "SELECT * FROM type::thing($id)", map[string]any{"id": "attachment:missing"}).Return(nil, nil).Once()
	_, err := c.Select(ctx, "attachment:missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Select(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClientAppliesTimeout(t *testing.T) {
	c, exec := newTestClient[domain.MessageRecord](t)
	exec.On("Query", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= 50*time.Millisecond
	}), "SELECT * FROM message", map[string]any(nil)).Return([]domain.MessageRecord{}, nil).Once()

	ctx := WithQueryTimeout(context.Background(), 50*time.Millisecond)
	_, err := c.Query(ctx, "SELECT * FROM message", nil)
	require.NoError(t, err)
	exec.AssertExpectations(t)
}

func TestWrapErrorKeepsCause(t *testing.T) {
	inner := NewDBError(ErrNotFound, "select").WithQuery("SELECT 1")
	err := WrapError(inner, "load attachment")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "load attachment: select")
	assert.Contains(t, err.Error(), "SELECT 1")
	assert.Nil(t, WrapError(nil, "noop"))
}

func TestHasLimitClause(t *testing.T) {
	assert.True(t, hasLimitClause("SELECT * FROM message LIMIT 5"))
	assert.True(t, hasLimitClause("select * from message\nlimit $limit"))
	assert.False(t, hasLimitClause("SELECT * FROM unlimited"))
}

func TestIsConnectionError(t *testing.T) {
	assert.True(t, isConnectionError(errors.New("write: broken pipe")))
	assert.True(t, isConnectionError(errors.New("dial tcp: connection refused")))
	assert.False(t, isConnectionError(context.DeadlineExceeded))
	assert.False(t, isConnectionError(errors.New("field email already exists")))
	assert.False(t, isConnectionError(nil))
}

func TestRedactDBURL(t *testing.T) {
	assert.Equal(t, "ws://root:xxxxx@localhost:8000/rpc", redactDBURL("ws://root:secret@localhost:8000/rpc"))
}
