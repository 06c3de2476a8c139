package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// BlobStore is the contract for persisting uploaded case files. Keys are
// opaque to callers and namespaced per document.
type BlobStore interface {
	Save(ctx context.Context, documentID, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// sanitizeFileName strips directory components and rejects empty names.
func sanitizeFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("storage: invalid file name %q", name)
	}
	return name, nil
}
