package storage

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"
)

// CloudinaryStore uploads files to Cloudinary and serves them from its CDN.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStore parses a cloudinary:// URL.
func NewCloudinaryStore(cloudinaryURL, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary configuration")
	}
	return &CloudinaryStore{cld: cld, folder: folder}, nil
}

func (s *CloudinaryStore) Save(ctx context.Context, u Upload) (StoredFile, error) {
	ct, err := DetectContentType(u)
	if err != nil {
		return StoredFile{}, err
	}
	name := StorageName(u.Filename)

	body, err := u.Open()
	if err != nil {
		return StoredFile{}, errors.Wrap(err, "open upload")
	}
	defer body.Close()

	res, err := s.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     strings.TrimSuffix(name, filepath.Ext(name)),
		ResourceType: "auto",
	})
	if err != nil {
		return StoredFile{}, errors.Wrap(err, "cloudinary upload")
	}
	if res.Error.Message != "" {
		return StoredFile{}, errors.Errorf("cloudinary upload: %s", res.Error.Message)
	}

	return StoredFile{Name: name, URL: res.SecureURL, ContentType: ct}, nil
}

func (s *CloudinaryStore) Remove(ctx context.Context, f StoredFile) error {
	publicID := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
	if s.folder != "" {
		publicID = s.folder + "/" + publicID
	}
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: cloudinaryResourceType(f.ContentType),
	})
	if err != nil {
		return errors.Wrap(err, "cloudinary destroy")
	}
	if res.Error.Message != "" {
		return errors.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	return nil
}

// cloudinaryResourceType mirrors how "auto" uploads are classified; audio is stored as video.
func cloudinaryResourceType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"), strings.HasPrefix(contentType, "audio/"):
		return "video"
	default:
		return "raw"
	}
}
