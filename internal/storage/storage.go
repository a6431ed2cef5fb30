// Package storage uploads message attachments to a blob store and returns
// durable URLs. Cloudinary, S3-compatible stores and the local filesystem
// are supported.
package storage

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ResourceTypeAuto lets the backend pick the resource type from the content.
const ResourceTypeAuto = "auto"

// ErrEmptyObject is returned when an upload carries no bytes.
var ErrEmptyObject = errors.New("storage: empty object")

// Object is one blob to upload.
type Object struct {
	Data         []byte
	Name         string
	ContentType  string
	Folder       string
	ResourceType string
}

// Result describes where an uploaded object can be fetched.
type Result struct {
	SecureURL string
	Key       string
}

// Uploader stores raw bytes and returns their public URL. Implementations are
// safe for concurrent use.
type Uploader interface {
	Upload(ctx context.Context, obj Object) (*Result, error)
}

// objectKey builds "<folder>/<resourceType>/<uuid>-<name>" with the name
// reduced to its base so callers cannot escape the folder.
func objectKey(obj Object, resourceType string) string {
	name := path.Base(strings.ReplaceAll(obj.Name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return path.Join(strings.Trim(obj.Folder, "/"), resourceType, uuid.NewString()+"-"+name)
}

// escapeKey path-escapes each segment of key for use in a URL.
func escapeKey(key string) string {
	segs := strings.Split(key, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}
