package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultCloudinaryAPI = "https://api.cloudinary.com/v1_1"

// CloudinaryUploader performs unsigned uploads against an upload preset.
// No API secret is involved; the preset decides what is accepted.
type CloudinaryUploader struct {
	cloudName string
	preset    string
	baseURL   string
	client    *http.Client
}

// CloudinaryOption configures a CloudinaryUploader.
type CloudinaryOption func(*CloudinaryUploader)

// WithCloudinaryBaseURL points the uploader at another API root, e.g. a test server.
func WithCloudinaryBaseURL(u string) CloudinaryOption {
	return func(c *CloudinaryUploader) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(hc *http.Client) CloudinaryOption {
	return func(c *CloudinaryUploader) { c.client = hc }
}

// NewCloudinaryUploader creates an uploader for cloudName using the unsigned preset.
func NewCloudinaryUploader(cloudName, preset string, opts ...CloudinaryOption) *CloudinaryUploader {
	c := &CloudinaryUploader{
		cloudName: cloudName,
		preset:    preset,
		baseURL:   defaultCloudinaryAPI,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Upload sends obj as a multipart form to /<cloud>/<resource_type>/upload.
func (c *CloudinaryUploader) Upload(ctx context.Context, obj Object) (*Result, error) {
	if len(obj.Data) == 0 {
		return nil, ErrEmptyObject
	}
	resourceType := obj.ResourceType
	if resourceType == "" {
		resourceType = ResourceTypeAuto
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("upload_preset", c.preset); err != nil {
		return nil, fmt.Errorf("failed to write upload form: %w", err)
	}
	if obj.Folder != "" {
		if err := form.WriteField("folder", obj.Folder); err != nil {
			return nil, fmt.Errorf("failed to write upload form: %w", err)
		}
	}
	name := obj.Name
	if name == "" {
		name = "file"
	}
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("failed to write upload form: %w", err)
	}
	if _, err := part.Write(obj.Data); err != nil {
		return nil, fmt.Errorf("failed to write upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to write upload form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/upload", c.baseURL, c.cloudName, resourceType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to cloudinary: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read cloudinary response: %w", err)
	}

	var out cloudinaryResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("cloudinary returned status %d with unreadable body: %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 || out.Error != nil {
		msg := http.StatusText(resp.StatusCode)
		if out.Error != nil {
			msg = out.Error.Message
		}
		return nil, fmt.Errorf("cloudinary API returned an error: status %d: %s", resp.StatusCode, msg)
	}
	if out.SecureURL == "" {
		return nil, fmt.Errorf("cloudinary response has no secure_url")
	}

	slog.DebugContext(ctx, "Uploaded object to cloudinary", "event", "blob_uploaded", "provider", "cloudinary", "public_id", out.PublicID)
	return &Result{SecureURL: out.SecureURL, Key: out.PublicID}, nil
}
