package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store persists one encoded artifact and returns where it ended up.
type Store interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// Linker turns a location returned by Put into a URL a browser can fetch.
type Linker interface {
	URL(ctx context.Context, location string) (string, error)
}

// ErrForeignLocation is returned by a Linker for locations it did not store.
var ErrForeignLocation = errors.New("storage: location not owned by this store")

// NewArtifactName returns a collision-resistant file name such as
// gif_3f1c...e9.gif.
func NewArtifactName(ext string) string {
	return "gif_" + uuid.NewString() + ext
}

// LocalStore writes artifacts into a directory.
type LocalStore struct {
	Dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &LocalStore{Dir: dir}, nil
}

// Put writes to a temporary file in the same directory and renames it, so a
// reader never sees a half-written artifact.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	final := filepath.Join(s.Dir, name)
	if err := WriteFileAtomic(final, data, 0644); err != nil {
		return "", err
	}
	return final, nil
}

// WriteFileAtomic writes data to path through a temp file and rename.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
