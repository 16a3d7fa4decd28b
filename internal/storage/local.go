package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage stores files on the local filesystem under a base directory,
// keyed by random UUIDs. The original extension is kept for easier debugging;
// the key is opaque to callers either way.
type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &LocalStorage{dir: dir}, nil
}

func (s *LocalStorage) Save(r io.Reader, filename string) (string, error) {
	id := uuid.NewString()
	if ext := sanitizeExt(filepath.Ext(filename)); ext != "" {
		id += ext
	}

	f, err := os.Create(filepath.Join(s.dir, id))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return id, nil
}

func (s *LocalStorage) Open(fileID string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, filepath.Base(fileID)))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *LocalStorage) Delete(fileID string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(fileID)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// sanitizeExt keeps only short alphanumeric extensions.
func sanitizeExt(ext string) string {
	if len(ext) > 10 {
		return ""
	}
	for _, r := range strings.TrimPrefix(ext, ".") {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9') {
			return ""
		}
	}
	return strings.ToLower(ext)
}
