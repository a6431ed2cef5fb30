package messenger

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/properly/internal/domain"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// AttachmentRequest is one file of a JSON submission. Data is base64 on the wire.
type AttachmentRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data []byte `json:"data"`
}

// SendMessageRequest is the body of POST /app/messenger/messages. The
// sender is always the authenticated user.
type SendMessageRequest struct {
	ReceiverID  string              `json:"receiverId" form:"receiverId"`
	Content     string              `json:"content" form:"content"`
	Timestamp   time.Time           `json:"timestamp"`
	Attachments []AttachmentRequest `json:"attachments"`
}

// Submission converts the request into a submission from senderID.
func (r SendMessageRequest) Submission(senderID string) domain.MessageSubmission {
	sub := domain.MessageSubmission{
		SenderID:   senderID,
		ReceiverID: r.ReceiverID,
		Content:    r.Content,
		Timestamp:  r.Timestamp,
	}
	for _, a := range r.Attachments {
		sub.Attachments = append(sub.Attachments, domain.AttachmentUpload{Data: a.Data, Type: a.Type, Name: a.Name})
	}
	return sub
}

// bindSendMessage reads a JSON or multipart submission.
func bindSendMessage(c echo.Context) (SendMessageRequest, error) {
	var req SendMessageRequest
	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
		if err := c.Bind(&req); err != nil {
			return req, err
		}
		return req, nil
	}

	if err := c.Request().ParseMultipartForm(multipartMemory); err != nil {
		return req, fmt.Errorf("invalid multipart body: %w", err)
	}
	form := c.Request().MultipartForm
	req.ReceiverID = c.FormValue("receiverId")
	req.Content = c.FormValue("content")
	if ts := c.FormValue("timestamp"); ts != "" {
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return req, fmt.Errorf("invalid timestamp %q: %w", ts, err)
		}
		req.Timestamp = parsed
	}
	for _, fh := range form.File["attachments"] {
		a, err := readAttachment(fh)
		if err != nil {
			return req, err
		}
		req.Attachments = append(req.Attachments, a)
	}
	return req, nil
}

func readAttachment(fh *multipart.FileHeader) (AttachmentRequest, error) {
	f, err := fh.Open()
	if err != nil {
		return AttachmentRequest{}, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return AttachmentRequest{}, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}
	return AttachmentRequest{Name: fh.Filename, Type: fh.Header.Get(echo.HeaderContentType), Data: data}, nil
}
