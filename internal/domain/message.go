package domain

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// validatorInstance is a package-level validator instance.
// Using a single instance is more efficient as it caches struct information.
var validatorInstance = validator.New()

// AttachmentUpload is one raw file carried by a submission. Data marshals to
// base64 in JSON, which is also how the size ceiling is measured.
type AttachmentUpload struct {
	Data []byte `json:"buffer"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// MessageSubmission is the transient input of a send. It is never persisted as is.
type MessageSubmission struct {
	SenderID    string             `json:"senderId" validate:"required"`
	ReceiverID  string             `json:"receiverId" validate:"required"`
	Content     string             `json:"content"`
	Attachments []AttachmentUpload `json:"attachments"`
	Timestamp   time.Time          `json:"timestamp"`
}

// HasContent reports whether the submission carries text or at least one file.
func (s *MessageSubmission) HasContent() bool {
	return s.Content != "" || len(s.Attachments) > 0
}

// Validate checks the identity fields and the timestamp of a submission.
func (s *MessageSubmission) Validate() error {
	if err := validatorInstance.Struct(s); err != nil {
		return err
	}
	if s.Timestamp.IsZero() {
		return ErrMissingTimestamp
	}
	return nil
}

// AttachmentDescriptor is what remains of an upload once it has a durable URL.
type AttachmentDescriptor struct {
	URL  string `json:"url" validate:"required"`
	Type string `json:"type"`
	Name string `json:"name" validate:"max=255"`
}

// AttachmentRecord groups all descriptors of one submission. It is created
// once and never updated.
type AttachmentRecord struct {
	ID          *surrealmodels.RecordID       `json:"id,omitempty"`
	Attachments []AttachmentDescriptor        `json:"attachments" validate:"required,min=1,dive"`
	CreatedAt   *surrealmodels.CustomDateTime `json:"created_at,omitempty"`
}

// Validate runs validation checks on the record before it is stored.
func (r *AttachmentRecord) Validate() error {
	return validatorInstance.Struct(r)
}

// MessageRecord is a persisted chat message. AttachmentsID is nil for
// content-only messages.
type MessageRecord struct {
	ID            *surrealmodels.RecordID       `json:"id,omitempty"`
	SenderID      string                        `json:"senderId"`
	ReceiverID    string                        `json:"receiverId"`
	Content       string                        `json:"content"`
	Timestamp     *surrealmodels.CustomDateTime `json:"timestamp,omitempty"`
	AttachmentsID *surrealmodels.RecordID       `json:"attachments,omitempty"`
}

// MessageView is the wire shape of a message for broadcast and HTTP clients.
// Record ids are flattened to strings and attachments may be resolved.
type MessageView struct {
	ID            string                 `json:"id"`
	SenderID      string                 `json:"senderId"`
	ReceiverID    string                 `json:"receiverId"`
	Content       string                 `json:"content"`
	Timestamp     time.Time              `json:"timestamp"`
	AttachmentsID *string                `json:"attachments"`
	Files         []AttachmentDescriptor `json:"files,omitempty"`
}

// View converts a persisted record into its wire shape.
func (m *MessageRecord) View() MessageView {
	v := MessageView{
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
	}
	if m.ID != nil {
		v.ID = m.ID.String()
	}
	if m.Timestamp != nil {
		v.Timestamp = m.Timestamp.Time.UTC()
	}
	if m.AttachmentsID != nil {
		id := m.AttachmentsID.String()
		v.AttachmentsID = &id
	}
	return v
}

// Involves reports whether userID is the sender or the receiver.
func (v MessageView) Involves(userID string) bool {
	return userID != "" && (v.SenderID == userID || v.ReceiverID == userID)
}

// AttachmentRepository stores attachment records.
type AttachmentRepository interface {
	Create(ctx context.Context, descriptors []AttachmentDescriptor) (*AttachmentRecord, error)
	FindByID(ctx context.Context, id string) (*AttachmentRecord, error)
	FindUnreferenced(ctx context.Context, olderThan time.Duration) ([]AttachmentRecord, error)
}

// MessageRepository stores message records.
type MessageRepository interface {
	Create(ctx context.Context, msg *MessageRecord) (*MessageRecord, error)
	ListConversation(ctx context.Context, userA, userB string, limit int) ([]MessageRecord, error)
}
