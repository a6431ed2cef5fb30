package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/nfrund/properly/internal/domain"
	"github.com/nfrund/properly/internal/middleware"
)

// Conversation returns the messages exchanged between userID and peerID,
// oldest first, with their attachment descriptors resolved. A message
// whose attachment record is missing is returned without files.
func (s *Service) Conversation(ctx context.Context, userID, peerID string, limit int) ([]domain.MessageView, error) {
	if userID == "" || peerID == "" {
		return nil, fmt.Errorf("both participants are required")
	}

	records, err := s.deps.Messages.ListConversation(ctx, userID, peerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	resolved := make(map[string][]domain.AttachmentDescriptor)
	views := make([]domain.MessageView, 0, len(records))
	for i := range records {
		view := records[i].View()
		if view.AttachmentsID != nil {
			files, ok := resolved[*view.AttachmentsID]
			if !ok {
				files, err = s.attachmentFiles(ctx, *view.AttachmentsID)
				if err != nil {
					return nil, err
				}
				resolved[*view.AttachmentsID] = files
			}
			view.Files = files
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) attachmentFiles(ctx context.Context, id string) ([]domain.AttachmentDescriptor, error) {
	record, err := s.deps.Attachments.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		middleware.FromContext(ctx).Warn("Message references a missing attachment record", "attachment_id", id)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load attachments %s: %w", id, err)
	}
	return record.Attachments, nil
}
