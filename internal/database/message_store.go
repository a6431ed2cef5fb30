package database

import (
	"context"
	"slices"

	"github.com/nfrund/properly/internal/domain"
)

const (
	messageTable = "message"

	// DefaultConversationLimit caps history reads when the caller gives no limit.
	DefaultConversationLimit = 50
	maxConversationLimit     = 200
)

var _ domain.MessageRepository = (*MessageStore)(nil)

// MessageStore persists chat messages.
type MessageStore struct {
	client Client[domain.MessageRecord]
}

// NewMessageStore creates a new MessageStore.
func NewMessageStore(client Client[domain.MessageRecord]) *MessageStore {
	return &MessageStore{client: client}
}

// Create writes msg and returns the stored record with its generated id.
// The attachment reference is written as NONE when unset.
func (s *MessageStore) Create(ctx context.Context, msg *domain.MessageRecord) (*domain.MessageRecord, error) {
	if msg == nil {
		return nil, NewDBError(ErrInvalidInput, "message to create cannot be nil")
	}
	if msg.SenderID == "" || msg.ReceiverID == "" {
		return nil, NewDBError(ErrInvalidInput, "sender and receiver are required")
	}
	if msg.Timestamp == nil {
		return nil, NewDBError(ErrInvalidInput, "timestamp is required")
	}

	data := map[string]any{
		"senderId":   msg.SenderID,
		"receiverId": msg.ReceiverID,
		"content":    msg.Content,
		"timestamp":  msg.Timestamp,
	}
	if msg.AttachmentsID != nil {
		data["attachments"] = msg.AttachmentsID
	}

	created, err := s.client.Create(ctx, messageTable, data)
	if err != nil {
		return nil, WrapError(err, "failed to create message record")
	}
	return created, nil
}

// ListConversation returns up to limit of the most recent messages exchanged
// between userA and userB, oldest first.
func (s *MessageStore) ListConversation(ctx context.Context, userA, userB string, limit int) ([]domain.MessageRecord, error) {
	if userA == "" || userB == "" {
		return nil, NewDBError(ErrInvalidInput, "both participants are required")
	}
	if limit <= 0 {
		limit = DefaultConversationLimit
	}
	limit = min(limit, maxConversationLimit)

	query := `
		SELECT * FROM message
		WHERE (senderId = $a AND receiverId = $b) OR (senderId = $b AND receiverId = $a)
		ORDER BY timestamp DESC
		LIMIT $limit
	`
	records, err := s.client.Query(ctx, query, map[string]any{"a": userA, "b": userB, "limit": limit})
	if err != nil {
		return nil, WrapError(err, "failed to list conversation")
	}
	slices.Reverse(records)
	return records, nil
}
