package core

import (
	"context"
	"io"
)

// FileStore stores uploaded documents under slash-separated keys.
type FileStore interface {
	// Save writes the content of r under key and returns the path to reference it by.
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	// Open returns a reader over the document stored at path. Callers must close it.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes the document stored at path; a missing document is not an error.
	Delete(ctx context.Context, path string) error
}
