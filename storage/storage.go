// Package storage saves uploaded files and returns the URL they are served from.
package storage

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// StoredFile describes where an upload ended up.
type StoredFile struct {
	// Name is the generated storage name, also used as the media filename.
	Name        string
	URL         string
	ContentType string
}

// FileStore persists uploads.
type FileStore interface {
	Save(ctx context.Context, u Upload) (StoredFile, error)
	// Remove deletes a file returned by Save. Removing a missing file is not an error.
	Remove(ctx context.Context, f StoredFile) error
}

// FromFileHeader adapts a multipart file part.
func FromFileHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// FromBytes builds an upload backed by memory.
func FromBytes(filename, contentType string, data []byte) Upload {
	return Upload{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// DetectContentType keeps a declared content type and sniffs the bytes when the
// client declared nothing useful.
func DetectContentType(u Upload) (string, error) {
	ct := strings.TrimSpace(u.ContentType)
	if ct != "" && ct != "application/octet-stream" {
		return ct, nil
	}
	r, err := u.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer r.Close()
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", errors.Wrap(err, "detect content type")
	}
	return mt.String(), nil
}

// StorageName returns a collision free name that keeps the client file's base name.
func StorageName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r < 0x20, strings.ContainsRune(`/\:*?"<>|`, r):
			return -1
		}
		return r
	}, base)
	return uuid.NewString() + "_" + base
}
