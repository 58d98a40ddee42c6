package core

import (
	"errors"
	"io"
)

// FileStorage is any service that can persist uploaded blobs.
//
// A blob is stored under a server-generated storage id: a time component,
// a random component and the original extension. The id is opaque to
// callers; the original filename is retained only as metadata by the
// owning record. Blobs are never mutated in place: a replace is
// store-new-then-delete-old.
type FileStorage interface {
	// Store persists content and returns the generated storage id.
	Store(content io.Reader, originalName string) (string, error)
	// Open opens the blob for reading; ErrBlobNotFound if it does not exist.
	Open(storageID string) (io.ReadCloser, error)
	// Delete removes the blob; deleting an absent blob is not an error.
	Delete(storageID string) error
	Exists(storageID string) bool
}

// ErrBlobNotFound is returned by FileStorage.Open for absent blobs.
var ErrBlobNotFound = errors.New("blob not found")
