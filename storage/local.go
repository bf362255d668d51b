package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// LocalStore writes uploads to a directory served statically under URLPrefix.
type LocalStore struct {
	Dir       string
	URLPrefix string
}

// NewLocalStore creates dir when missing.
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload dir")
	}
	return &LocalStore{Dir: dir, URLPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (s *LocalStore) Save(ctx context.Context, u Upload) (StoredFile, error) {
	ct, err := DetectContentType(u)
	if err != nil {
		return StoredFile{}, err
	}
	name := StorageName(u.Filename)

	src, err := u.Open()
	if err != nil {
		return StoredFile{}, errors.Wrap(err, "open upload")
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return StoredFile{}, errors.Wrap(err, "create file")
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return StoredFile{}, errors.Wrap(err, "write file")
	}
	if err := dst.Close(); err != nil {
		return StoredFile{}, errors.Wrap(err, "close file")
	}

	return StoredFile{Name: name, URL: s.URLPrefix + "/" + name, ContentType: ct}, nil
}

func (s *LocalStore) Remove(ctx context.Context, f StoredFile) error {
	err := os.Remove(filepath.Join(s.Dir, filepath.Base(f.Name)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove file")
	}
	return nil
}
