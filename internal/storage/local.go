package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// LocalUploader writes objects to a filesystem served under baseURL. Backed
// by afero so tests run against memory.
type LocalUploader struct {
	fs      afero.Fs
	baseURL string
}

// NewLocalUploader roots all writes at dir on the OS filesystem.
func NewLocalUploader(dir, baseURL string) *LocalUploader {
	return NewLocalUploaderFs(afero.NewBasePathFs(afero.NewOsFs(), dir), baseURL)
}

// NewLocalUploaderFs uses fs as the storage root.
func NewLocalUploaderFs(fs afero.Fs, baseURL string) *LocalUploader {
	return &LocalUploader{fs: fs, baseURL: strings.TrimRight(baseURL, "/")}
}

// Upload writes obj and returns baseURL joined with its key.
func (l *LocalUploader) Upload(ctx context.Context, obj Object) (*Result, error) {
	if len(obj.Data) == 0 {
		return nil, ErrEmptyObject
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	contentType := DetectContentType(obj.Data, obj.ContentType)
	key := objectKey(obj, ResolveResourceType(obj.ResourceType, contentType))

	target := filepath.FromSlash(key)
	if err := l.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := afero.WriteFile(l.fs, target, obj.Data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}

	slog.DebugContext(ctx, "Stored object on local filesystem", "event", "blob_uploaded", "provider", "local", "key", key)
	return &Result{SecureURL: l.baseURL + "/" + escapeKey(path.Clean(key)), Key: key}, nil
}
