package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nfrund/properly/internal/domain"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

const attachmentTable = "attachment"

var _ domain.AttachmentRepository = (*AttachmentStore)(nil)

// AttachmentStore persists the descriptor groups produced by uploads.
type AttachmentStore struct {
	client Client[domain.AttachmentRecord]
}

// NewAttachmentStore creates a new AttachmentStore.
func NewAttachmentStore(client Client[domain.AttachmentRecord]) *AttachmentStore {
	return &AttachmentStore{client: client}
}

// Create stores one record holding every descriptor, in submission order.
func (s *AttachmentStore) Create(ctx context.Context, descriptors []domain.AttachmentDescriptor) (*domain.AttachmentRecord, error) {
	record := &domain.AttachmentRecord{
		Attachments: descriptors,
		CreatedAt:   &surrealmodels.CustomDateTime{Time: time.Now().UTC()},
	}
	if err := record.Validate(); err != nil {
		return nil, NewDBError(fmt.Errorf("%w: %w", ErrInvalidInput, err), "invalid attachment record")
	}

	created, err := s.client.Create(ctx, attachmentTable, map[string]any{
		"attachments": record.Attachments,
		"created_at":  record.CreatedAt,
	})
	if err != nil {
		return nil, WrapError(err, "failed to create attachment record")
	}
	return created, nil
}

// FindByID returns the record with the given id, or domain.ErrNotFound.
func (s *AttachmentStore) FindByID(ctx context.Context, id string) (*domain.AttachmentRecord, error) {
	record, err := s.client.Select(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, WrapError(err, "failed to load attachment record")
	}
	return record, nil
}

// FindUnreferenced lists attachment records older than olderThan that no
// message points at. These are left behind when message persistence fails
// after the attachment record was written.
func (s *AttachmentStore) FindUnreferenced(ctx context.Context, olderThan time.Duration) ([]domain.AttachmentRecord, error) {
	query := `
		SELECT * FROM attachment
		WHERE created_at < $cutoff
		AND id NOTINSIDE (SELECT VALUE attachments FROM message WHERE attachments != NONE)
		ORDER BY created_at ASC
	`
	cutoff := surrealmodels.CustomDateTime{Time: time.Now().UTC().Add(-olderThan)}
	records, err := s.client.Query(ctx, query, map[string]any{"cutoff": cutoff})
	if err != nil {
		return nil, WrapError(err, "failed to list unreferenced attachments")
	}
	return records, nil
}
