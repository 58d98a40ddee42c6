package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// diskStorage persists blobs as flat files under a single directory.
// Storage ids combine a millisecond timestamp with a random UUID so two
// concurrent uploads can never collide in practice; ids are generated
// server-side and never derived from client input beyond the extension.
type diskStorage struct {
	dir string
}

var _ core.FileStorage = (*diskStorage)(nil)

func New(dir string) (*diskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating uploads dir")
	}
	return &diskStorage{dir: dir}, nil
}

func (s *diskStorage) Store(content io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	storageID := fmt.Sprintf("%d-%s%s", time.Now().UnixNano()/int64(time.Millisecond), uuid.New().String(), ext)

	// O_EXCL: an existing blob is never overwritten
	f, err := os.OpenFile(filepath.Join(s.dir, storageID), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "creating blob")
	}
	if _, err = io.Copy(f, content); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", errors.Wrap(err, "writing blob")
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", errors.Wrap(err, "closing blob")
	}
	return storageID, nil
}

func (s *diskStorage) Open(storageID string) (io.ReadCloser, error) {
	path, ok := s.path(storageID)
	if !ok {
		return nil, core.ErrBlobNotFound
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrBlobNotFound
		}
		return nil, errors.Wrap(err, "opening blob")
	}
	return f, nil
}

func (s *diskStorage) Delete(storageID string) error {
	path, ok := s.path(storageID)
	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting blob")
	}
	return nil
}

func (s *diskStorage) Exists(storageID string) bool {
	path, ok := s.path(storageID)
	if !ok {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// path resolves a storage id inside the uploads dir; ids carrying path
// separators or traversal elements are rejected.
func (s *diskStorage) path(storageID string) (string, bool) {
	if storageID == "" || storageID == "." || storageID == ".." || filepath.Base(storageID) != storageID {
		return "", false
	}
	return filepath.Join(s.dir, storageID), true
}
