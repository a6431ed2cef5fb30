// Package messaging implements the chat send pipeline: validate the
// submission, upload its attachments, persist the attachment group and the
// message, then broadcast it and notify the receiver.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nfrund/properly/internal/config"
	"github.com/nfrund/properly/internal/database"
	"github.com/nfrund/properly/internal/domain"
	"github.com/nfrund/properly/internal/middleware"
	"github.com/nfrund/properly/internal/push"
	"github.com/nfrund/properly/internal/storage"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Broadcaster publishes a persisted message to connected clients.
type Broadcaster interface {
	BroadcastNewMessage(ctx context.Context, msg domain.MessageView) error
}

// Dependencies are the collaborators of the send pipeline. They are
// long-lived and shared by every submission.
type Dependencies struct {
	Uploader    storage.Uploader
	Attachments domain.AttachmentRepository
	Messages    domain.MessageRepository
	Broadcaster Broadcaster
	Notifier    push.Dispatcher
}

// Options tune the pipeline.
type Options struct {
	// MaxBytes is the ceiling on the JSON size of a submission.
	MaxBytes int
	// Folder is the storage folder attachments are uploaded to.
	Folder string
	// Notification is sent to the receiver of every message.
	Notification push.Notification
}

// DefaultNotification is the push shown to a message receiver.
func DefaultNotification(icon string) push.Notification {
	return push.Notification{
		Title: "New Message",
		Body:  "You have received a new message",
		Icon:  icon,
	}
}

// OptionsFrom reads Options from configuration.
func OptionsFrom(cfg config.Provider) Options {
	return Options{
		MaxBytes:     cfg.GetMessageMaxBytes(),
		Folder:       cfg.GetStorageFolder(),
		Notification: DefaultNotification(cfg.GetPushIconURL()),
	}
}

// Service runs the send pipeline. It holds no per-submission state and is
// safe for concurrent use.
type Service struct {
	deps  Dependencies
	opts  Options
	newID func() string
}

// NewService creates a Service.
func NewService(deps Dependencies, opts Options) *Service {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = config.DefaultMessageMaxBytes
	}
	if opts.Folder == "" {
		opts.Folder = "uploads"
	}
	return &Service{deps: deps, opts: opts, newID: uuid.NewString}
}

// SendMessage runs one submission through the pipeline and always returns
// a Result; it does not panic and never returns an error to the caller.
// Nothing is retried and there is no idempotency key: sending the same
// submission twice stores two messages.
func (s *Service) SendMessage(ctx context.Context, sub domain.MessageSubmission) (res Result) {
	id := s.newID()
	logger := middleware.FromContext(ctx).With("correlation_id", id, "sender_id", sub.SenderID, "receiver_id", sub.ReceiverID)
	ctx = middleware.WithLogger(ctx, logger)

	stage := StageValidating
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Send pipeline panicked", "stage", stage, "panic", r)
			res = failed(id, stage, GenericError, fmt.Errorf("panic: %v", r))
		}
	}()

	// Validating
	size, err := submissionSize(&sub)
	if err != nil {
		logger.Error("Failed to measure submission", "error", err)
		return failed(id, stage, GenericError, err)
	}
	if size > s.opts.MaxBytes {
		logger.Info("Rejected oversized message", "size", size, "max", s.opts.MaxBytes)
		return failed(id, stage, SizeError(s.opts.MaxBytes), fmt.Errorf("%w: %d > %d bytes", domain.ErrMessageTooLarge, size, s.opts.MaxBytes))
	}
	if !sub.HasContent() {
		return failed(id, stage, EmptyError, domain.ErrEmptyMessage)
	}
	if err := sub.Validate(); err != nil {
		logger.Warn("Rejected invalid submission", "error", err)
		return failed(id, stage, GenericError, err)
	}

	// Uploading
	var uploads UploadOutcome
	if len(sub.Attachments) > 0 {
		stage = StageUploading
		uploads = uploadAll(ctx, s.deps.Uploader, s.opts.Folder, sub.Attachments)
		if !uploads.AllSucceeded() {
			logger.Error("Attachment upload failed", "error", uploads.Err, "files", len(sub.Attachments))
			logOrphans(logger, stage, uploads.Uploaded, "")
			return failed(id, stage, UploadError, uploads.Err)
		}
	}

	// Writes are never re-run after a dropped connection; a duplicate
	// record is worse than a failed send.
	writeCtx := database.WithoutRetry(ctx)

	// PersistingAttachment
	var attachment *domain.AttachmentRecord
	if len(uploads.Descriptors) > 0 {
		stage = StagePersistingAttachment
		attachment, err = s.deps.Attachments.Create(writeCtx, uploads.Descriptors)
		if err == nil && (attachment == nil || attachment.ID == nil) {
			err = errors.New("attachment record was stored without an id")
		}
		if err != nil {
			logger.Error("Failed to persist attachment record", "error", err)
			logOrphans(logger, stage, uploads.Uploaded, "")
			return failed(id, stage, GenericError, err)
		}
	}

	// PersistingMessage
	stage = StagePersistingMessage
	record := &domain.MessageRecord{
		SenderID:   sub.SenderID,
		ReceiverID: sub.ReceiverID,
		Content:    sub.Content,
		Timestamp:  &surrealmodels.CustomDateTime{Time: normalizeTimestamp(sub.Timestamp)},
	}
	if attachment != nil {
		record.AttachmentsID = attachment.ID
	}
	stored, err := s.deps.Messages.Create(writeCtx, record)
	if err == nil && stored == nil {
		err = errors.New("message record was not returned")
	}
	if err != nil {
		logger.Error("Failed to persist message", "error", err)
		attachmentID := ""
		if attachment != nil {
			attachmentID = attachment.ID.String()
		}
		logOrphans(logger, stage, uploads.Uploaded, attachmentID)
		return failed(id, stage, GenericError, err)
	}

	view := stored.View()
	view.Files = uploads.Descriptors

	// Broadcasting and Notifying never change the outcome once the message
	// is stored.
	var effects SideEffects

	stage = StageBroadcasting
	effects.Broadcast = isolate(ctx, func(ctx context.Context) error {
		return s.deps.Broadcaster.BroadcastNewMessage(ctx, view)
	})
	if effects.Broadcast.Err != nil {
		logger.Warn("Broadcast failed; message is stored", "event", "message_broadcast_failed", "message_id", view.ID, "error", effects.Broadcast.Err)
	}

	stage = StageNotifying
	effects.Notify = isolate(ctx, func(ctx context.Context) error {
		return s.deps.Notifier.PublishToUsers(ctx, []string{sub.ReceiverID}, s.opts.Notification)
	})
	if effects.Notify.Err != nil {
		logger.Warn("Push notification failed", "event", "message_notify_failed", "message_id", view.ID, "error", effects.Notify.Err)
	}

	logger.Info("Message sent", "message_id", view.ID, "attachments", len(view.Files))
	return succeeded(id, view, effects)
}

// normalizeTimestamp keeps the client's clock and only converts it to UTC.
func normalizeTimestamp(t time.Time) time.Time {
	return t.UTC()
}

// logOrphans records what a failed send left behind at the storage provider
// and in the database.
func logOrphans(logger *slog.Logger, stage Stage, urls []string, attachmentID string) {
	if len(urls) == 0 && attachmentID == "" {
		return
	}
	logger.Warn("Send left unreferenced resources",
		"event", "message_orphan_candidate",
		"stage", stage,
		"uploaded_urls", urls,
		"attachment_id", attachmentID,
	)
}
