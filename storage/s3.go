package storage

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
)

// S3Store uploads files to an S3 bucket under the uploads/ prefix.
type S3Store struct {
	bucket        string
	publicBaseURL string
	uploader      *s3manager.Uploader
}

// NewS3Store builds an uploader from the default credential chain.
func NewS3Store(bucket, region, publicBaseURL string) (*S3Store, error) {
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, errors.Wrap(err, "aws session")
	}
	if publicBaseURL == "" {
		publicBaseURL = "https://" + bucket + ".s3." + region + ".amazonaws.com/"
	}
	if !strings.HasSuffix(publicBaseURL, "/") {
		publicBaseURL += "/"
	}
	return &S3Store{
		bucket:        bucket,
		publicBaseURL: publicBaseURL,
		uploader:      s3manager.NewUploader(sess),
	}, nil
}

func (s *S3Store) Save(ctx context.Context, u Upload) (StoredFile, error) {
	ct, err := DetectContentType(u)
	if err != nil {
		return StoredFile{}, err
	}
	name := StorageName(u.Filename)
	key := "uploads/" + name

	body, err := u.Open()
	if err != nil {
		return StoredFile{}, errors.Wrap(err, "open upload")
	}
	defer body.Close()

	if _, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(ct),
	}); err != nil {
		return StoredFile{}, errors.Wrap(err, "s3 upload")
	}

	return StoredFile{Name: name, URL: s.publicBaseURL + key, ContentType: ct}, nil
}

func (s *S3Store) Remove(ctx context.Context, f StoredFile) error {
	_, err := s.uploader.S3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String("uploads/" + f.Name),
	})
	return errors.Wrap(err, "s3 delete")
}
