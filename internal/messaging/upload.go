package messaging

import (
	"context"
	"fmt"
	"sync"

	"github.com/nfrund/properly/internal/domain"
	"github.com/nfrund/properly/internal/storage"
	"golang.org/x/sync/errgroup"
)

// UploadOutcome is the all-or-nothing result of uploading every attachment
// of a submission: either all descriptors, or the first error.
type UploadOutcome struct {
	Descriptors []domain.AttachmentDescriptor
	Err         error
	// Uploaded lists the URLs stored at the provider, including those of a
	// failed group. They are not removed and are logged for reconciliation.
	Uploaded []string
}

// AllSucceeded reports whether every upload produced a descriptor.
func (o UploadOutcome) AllSucceeded() bool {
	return o.Err == nil
}

// uploadAll uploads files concurrently. The first failure cancels the
// context of the uploads still running; uploads that already finished stay
// at the provider.
func uploadAll(ctx context.Context, up storage.Uploader, folder string, files []domain.AttachmentUpload) UploadOutcome {
	descriptors := make([]domain.AttachmentDescriptor, len(files))
	var (
		mu       sync.Mutex
		uploaded []string
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("upload of %q panicked: %v", file.Name, r)
				}
			}()

			res, err := up.Upload(gctx, storage.Object{
				Data:         file.Data,
				Name:         file.Name,
				ContentType:  file.Type,
				Folder:       folder,
				ResourceType: storage.ResourceTypeAuto,
			})
			if err != nil {
				return fmt.Errorf("upload of %q failed: %w", file.Name, err)
			}
			if res == nil || res.SecureURL == "" {
				return fmt.Errorf("upload of %q returned no url", file.Name)
			}

			mu.Lock()
			uploaded = append(uploaded, res.SecureURL)
			mu.Unlock()

			contentType := file.Type
			if contentType == "" {
				contentType = storage.DetectContentType(file.Data, "")
			}
			descriptors[i] = domain.AttachmentDescriptor{URL: res.SecureURL, Type: contentType, Name: file.Name}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return UploadOutcome{Err: err, Uploaded: uploaded}
	}
	return UploadOutcome{Descriptors: descriptors, Uploaded: uploaded}
}
