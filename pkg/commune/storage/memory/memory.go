package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/commune-dev/commune/pkg/commune"
)

// Backend is an in-memory implementation of the commune.BlobStore interface
type Backend struct {
	mu       sync.RWMutex
	objects  map[string][]byte
	uploaded map[string]time.Time
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects:  make(map[string][]byte),
		uploaded: make(map[string]time.Time),
	}
}

// Upload stores content directly in memory
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = data
	b.uploaded[objectKey] = time.Now()
	return nil
}

// Download retrieves content stored in memory
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, commune.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes content from memory
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return commune.ErrObjectNotFound
	}
	delete(b.objects, objectKey)
	delete(b.uploaded, objectKey)
	return nil
}

// GetDownloadURL returns an error; the memory backend serves bytes directly
// through the images handler instead of handing out URLs
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string) (string, error) {
	return "", errors.New("direct download required for memory backend")
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*commune.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, commune.ErrObjectNotFound
	}

	return &commune.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(data)),
		ContentType: http.DetectContentType(data),
		UpdatedAt:   b.uploaded[objectKey],
	}, nil
}
