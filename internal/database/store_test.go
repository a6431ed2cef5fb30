package database

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nfrund/properly/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// mockClient is a testify mock for Client[T].
type mockClient[T any] struct {
	mock.Mock
}

func (m *mockClient[T]) Create(ctx context.Context, table string, data any) (*T, error) {
	args := m.Called(ctx, table, data)
	row, _ := args.Get(0).(*T)
	return row, args.Error(1)
}

func (m *mockClient[T]) Select(ctx context.Context, id string) (*T, error) {
	args := m.Called(ctx, id)
	row, _ := args.Get(0).(*T)
	return row, args.Error(1)
}

func (m *mockClient[T]) Query(ctx context.Context, query string, params map[string]any) ([]T, error) {
	args := m.Called(ctx, query, params)
	rows, _ := args.Get(0).([]T)
	return rows, args.Error(1)
}

func (m *mockClient[T]) QueryOne(ctx context.Context, query string, params map[string]any) (*T, error) {
	args := m.Called(ctx, query, params)
	row, _ := args.Get(0).(*T)
	return row, args.Error(1)
}

func (m *mockClient[T]) Execute(ctx context.Context, query string, params map[string]any) error {
	return m.Called(ctx, query, params).Error(0)
}

func TestAttachmentStoreCreate(t *testing.T) {
	ctx := context.Background()
	descriptors := []domain.AttachmentDescriptor{
		{URL: "https://cdn.example.com/uploads/a.png", Type: "image/png", Name: "a.png"},
		{URL: "https://cdn.example.com/uploads/b.pdf", Type: "application/pdf", Name: "b.pdf"},
	}

	t.Run("stores every descriptor in order", func(t *testing.T) {
		client := &mockClient[domain.AttachmentRecord]{}
		store := NewAttachmentStore(client)
		id := surrealmodels.NewRecordID("attachment", "a1")

		client.On("Create", ctx, "attachment", mock.MatchedBy(func(data map[string]any) bool {
			got, ok := data["attachments"].([]domain.AttachmentDescriptor)
			return ok && assert.ObjectsAreEqual(descriptors, got) && data["created_at"] != nil
		})).Return(&domain.AttachmentRecord{ID: &id, Attachments: descriptors}, nil).Once()

		rec, err := store.Create(ctx, descriptors)
		require.NoError(t, err)
		assert.Equal(t, &id, rec.ID)
		client.AssertExpectations(t)
	})

	t.Run("rejects an empty group without a write", func(t *testing.T) {
		client := &mockClient[domain.AttachmentRecord]{}
		store := NewAttachmentStore(client)

		_, err := store.Create(ctx, nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
		client.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAttachmentStoreFindByID(t *testing.T) {
	ctx := context.Background()
	client := &mockClient[domain.AttachmentRecord]{}
	store := NewAttachmentStore(client)

	client.On("Select", ctx, "attachment:gone").Return(nil, NewDBError(ErrNotFound, "record not found")).Once()

	_, err := store.FindByID(ctx, "attachment:gone")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAttachmentStoreFindUnreferenced(t *testing.T) {
	ctx := context.Background()
	client := &mockClient[domain.AttachmentRecord]{}
	store := NewAttachmentStore(client)

	before := time.Now().UTC().Add(-time.Hour)
	client.On("Query", ctx, mock.MatchedBy(func(q string) bool {
		return strings.Contains(q, "NOTINSIDE") && strings.Contains(q, "FROM message")
	}), mock.MatchedBy(func(p map[string]any) bool {
		cutoff, ok := p["cutoff"].(surrealmodels.CustomDateTime)
		return ok && !cutoff.Time.After(before.Add(time.Second))
	})).Return([]domain.AttachmentRecord{{}}, nil).Once()

	records, err := store.FindUnreferenced(ctx, time.Hour)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	client.AssertExpectations(t)
}

func TestMessageStoreCreate(t *testing.T) {
	ctx := context.Background()
	ts := &surrealmodels.CustomDateTime{Time: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}

	t.Run("content only message has no attachment field", func(t *testing.T) {
		client := &mockClient[domain.MessageRecord]{}
		store := NewMessageStore(client)

		client.On("Create", ctx, "message", mock.MatchedBy(func(data map[string]any) bool {
			_, hasRef := data["attachments"]
			return !hasRef && data["content"] == "hi" && data["senderId"] == "u1" && data["receiverId"] == "u2"
		})).Return(&domain.MessageRecord{Content: "hi"}, nil).Once()

		_, err := store.Create(ctx, &domain.MessageRecord{SenderID: "u1", ReceiverID: "u2", Content: "hi", Timestamp: ts})
		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("attachment reference is written", func(t *testing.T) {
		client := &mockClient[domain.MessageRecord]{}
		store := NewMessageStore(client)
		ref := surrealmodels.NewRecordID("attachment", "a1")

		client.On("Create", ctx, "message", mock.MatchedBy(func(data map[string]any) bool {
			return data["attachments"] == &ref && data["content"] == ""
		})).Return(&domain.MessageRecord{AttachmentsID: &ref}, nil).Once()

		rec, err := store.Create(ctx, &domain.MessageRecord{SenderID: "u1", ReceiverID: "u2", Timestamp: ts, AttachmentsID: &ref})
		require.NoError(t, err)
		assert.Equal(t, &ref, rec.AttachmentsID)
	})

	t.Run("requires participants and timestamp", func(t *testing.T) {
		store := NewMessageStore(&mockClient[domain.MessageRecord]{})
		_, err := store.Create(ctx, &domain.MessageRecord{SenderID: "u1", Timestamp: ts})
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = store.Create(ctx, &domain.MessageRecord{SenderID: "u1", ReceiverID: "u2"})
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = store.Create(ctx, nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestMessageStoreListConversation(t *testing.T) {
	ctx := context.Background()
	client := &mockClient[domain.MessageRecord]{}
	store := NewMessageStore(client)

	newestFirst := []domain.MessageRecord{{Content: "3"}, {Content: "2"}, {Content: "1"}}
	client.On("Query", ctx, mock.Anything, map[string]any{"a": "u1", "b": "u2", "limit": DefaultConversationLimit}).
		Return(newestFirst, nil).Once()

	got, err := store.ListConversation(ctx, "u1", "u2", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "1", got[0].Content)
	assert.Equal(t, "3", got[2].Content)

	_, err = store.ListConversation(ctx, "u1", "", 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
