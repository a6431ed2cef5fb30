package messaging

import (
	"fmt"

	"github.com/nfrund/properly/internal/domain"
)

// Caller-visible outcomes. Internal errors never reach the caller; they are
// mapped to GenericError.
const (
	SuccessMessage = "Message sent!"
	EmptyError     = "Message must contain either content or attachments."
	UploadError    = "Failed to upload file"
	GenericError   = "Something went wrong. Please try again!"
)

// SizeError returns the size-limit message for a ceiling of maxBytes.
func SizeError(maxBytes int) string {
	return fmt.Sprintf("Message size exceeds %dMB limit. Please reduce the size of your message or attachments.", maxBytes/(1024*1024))
}

// Stage is a step of the send pipeline.
type Stage string

const (
	StageValidating           Stage = "validating"
	StageUploading            Stage = "uploading"
	StagePersistingAttachment Stage = "persisting_attachment"
	StagePersistingMessage    Stage = "persisting_message"
	StageBroadcasting         Stage = "broadcasting"
	StageNotifying            Stage = "notifying"
	StageDone                 Stage = "done"
)

// Failure records the stage a send stopped at and why.
type Failure struct {
	Stage Stage
	Cause error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("send failed while %s: %v", f.Stage, f.Cause)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Result is the uniform outcome of SendMessage. Exactly one of Success and
// Error is set; the remaining fields are for logging and tests.
type Result struct {
	Success string `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`

	// CorrelationID ties together every log line of one submission.
	CorrelationID string `json:"-"`
	// Stage is the last stage reached: StageDone on success.
	Stage   Stage               `json:"-"`
	Failure *Failure            `json:"-"`
	Message *domain.MessageView `json:"-"`
	Effects SideEffects         `json:"-"`
}

// OK reports whether the message was persisted.
func (r Result) OK() bool {
	return r.Error == ""
}

func succeeded(id string, msg domain.MessageView, effects SideEffects) Result {
	return Result{Success: SuccessMessage, CorrelationID: id, Stage: StageDone, Message: &msg, Effects: effects}
}

func failed(id string, stage Stage, userMessage string, cause error) Result {
	return Result{Error: userMessage, CorrelationID: id, Stage: stage, Failure: &Failure{Stage: stage, Cause: cause}}
}
