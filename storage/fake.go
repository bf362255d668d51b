package storage

import (
	"context"
	"sync"
)

// FakeFileStore records uploads without writing anything.
type FakeFileStore struct {
	mu      sync.Mutex
	Saved   []StoredFile
	Removed []StoredFile

	// Err fails every Save once FailAfter files have been saved.
	Err       error
	FailAfter int
}

func (f *FakeFileStore) Save(ctx context.Context, u Upload) (StoredFile, error) {
	f.mu.Lock()
	failing := f.Err != nil && len(f.Saved) >= f.FailAfter
	f.mu.Unlock()
	if failing {
		return StoredFile{}, f.Err
	}
	ct, err := DetectContentType(u)
	if err != nil {
		return StoredFile{}, err
	}
	sf := StoredFile{Name: u.Filename, URL: "/uploads/" + u.Filename, ContentType: ct}
	f.mu.Lock()
	f.Saved = append(f.Saved, sf)
	f.mu.Unlock()
	return sf, nil
}

func (f *FakeFileStore) Remove(ctx context.Context, sf StoredFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, saved := range f.Saved {
		if saved.Name == sf.Name {
			f.Saved = append(f.Saved[:i], f.Saved[i+1:]...)
			break
		}
	}
	f.Removed = append(f.Removed, sf)
	return nil
}
