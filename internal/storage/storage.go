package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"
)

// BlobStore stores attachment and receipt files under opaque keys.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// FileKey builds the storage key for an uploaded file. Keys are prefixed
// with the upload time in milliseconds so concurrent uploads of the same
// source file never collide.
func FileKey(fileID, originalName string) string {
	ext := filepath.Ext(originalName)
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), fileID, ext)
}
