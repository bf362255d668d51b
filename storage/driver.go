package storage

import (
	"github.com/pkg/errors"

	"github.com/cppla/sharehub/config"
)

// New selects the file store named by cfg.StorageDriver.
func New(cfg config.AppConfig) (FileStore, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return NewLocalStore(cfg.UploadDir, cfg.UploadURLPrefix)
	case "s3":
		return NewS3Store(cfg.S3Bucket, cfg.S3Region, cfg.S3PublicBaseURL)
	case "cloudinary":
		return NewCloudinaryStore(cfg.CloudinaryURL, cfg.CloudinaryFolder)
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
