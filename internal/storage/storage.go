package storage

import (
	"errors"
	"io"
)

// ErrNotFound is returned when a file reference does not resolve.
var ErrNotFound = errors.New("file not found")

// Storage is the blob-store collaborator. The core never interprets file
// references; it only stores, resolves and deletes them.
type Storage interface {
	// Save writes the content and returns an opaque file reference.
	Save(r io.Reader, filename string) (string, error)
	// Open returns a reader for the referenced file.
	Open(fileID string) (io.ReadCloser, error)
	// Delete removes the referenced file. Deleting a missing file is not an
	// error (cleanup tasks may retry).
	Delete(fileID string) error
}
