package storage

import (
	"fmt"

	"github.com/nfrund/properly/internal/config"
)

// NewUploader returns the uploader selected by STORAGE_PROVIDER.
func NewUploader(cfg config.Provider) (Uploader, error) {
	switch cfg.GetStorageProvider() {
	case "cloudinary":
		if cfg.GetCloudinaryCloudName() == "" {
			return nil, fmt.Errorf("storage provider is 'cloudinary' but CLOUDINARY_CLOUD_NAME is not set")
		}
		return NewCloudinaryUploader(cfg.GetCloudinaryCloudName(), cfg.GetCloudinaryUploadPreset()), nil
	case "s3":
		up, err := NewS3Uploader(S3Config{
			Endpoint:       cfg.GetS3Endpoint(),
			PublicEndpoint: cfg.GetS3PublicEndpoint(),
			Region:         cfg.GetS3Region(),
			Bucket:         cfg.GetS3Bucket(),
			AccessKey:      cfg.GetS3AccessKey(),
			SecretKey:      cfg.GetS3SecretKey(),
			SSLDisabled:    cfg.GetS3SSLDisabled(),
		})
		if err != nil {
			return nil, err
		}
		return up, nil
	case "local":
		return NewLocalUploader(cfg.GetLocalStorageDir(), cfg.GetLocalStorageBaseURL()), nil
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.GetStorageProvider())
	}
}
