// Package files stores the uploaded project documents, on the local disk or in a Backblaze B2 bucket.
package files

import (
	"context"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/fyp/core"
)

var (
	ErrNotFound   = core.NewNotFoundError("file not found")
	errInvalidKey = errors.New("invalid file key")
)

// New returns the FileStore configured by `storage.backend`.
func New(ctx context.Context, conf *core.Config) (core.FileStore, error) {
	switch conf.Storage.Backend {
	case "", "local":
		return NewLocalStore(conf.Storage.LocalDir)
	case "b2":
		return NewB2Store(ctx, conf.Storage.B2Account, conf.Storage.B2Key, conf.Storage.B2Bucket)
	}
	return nil, errors.Errorf("unsupported storage backend %q", conf.Storage.Backend)
}

// cleanKey returns the canonical forward-slash form of key, rejecting keys escaping the store's root.
func cleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	if key == "" || strings.HasPrefix(key, "/") {
		return "", errInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", errInvalidKey
		}
	}
	cleaned := path.Clean(key)
	if cleaned == "." {
		return "", errInvalidKey
	}
	return cleaned, nil
}
