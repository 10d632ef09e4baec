package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	domain "github.com/yanqian/complaint-intake/internal/domain/intake"
)

// MemoryStorage keeps blobs in memory. Useful for tests and local dev.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string]storedBlob
}

type storedBlob struct {
	data     []byte
	mimeType string
	etag     string
}

// NewMemoryStorage constructs storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string]storedBlob)}
}

func memoryKey(category domain.CategoryID, key string) string {
	return string(category) + "/" + key
}

// Put stores the blob, replacing any previous blob with the same key.
func (s *MemoryStorage) Put(_ context.Context, category domain.CategoryID, key string, data []byte, mimeType string) (domain.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash := md5.Sum(data)
	etag := hex.EncodeToString(hash[:])
	copied := make([]byte, len(data))
	copy(copied, data)
	s.blobs[memoryKey(category, key)] = storedBlob{data: copied, mimeType: mimeType, etag: etag}
	return domain.StoredObject{
		Location: "memory://" + memoryKey(category, key),
		Key:      key,
		Size:     int64(len(data)),
		MimeType: mimeType,
		ETag:     etag,
	}, nil
}

// Get returns a reader for the stored blob.
func (s *MemoryStorage) Get(_ context.Context, category domain.CategoryID, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[memoryKey(category, key)]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", memoryKey(category, key))
	}
	return io.NopCloser(bytes.NewReader(blob.data)), nil
}

// Delete removes the blob.
func (s *MemoryStorage) Delete(_ context.Context, category domain.CategoryID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, memoryKey(category, key))
	return nil
}

var _ domain.ObjectStorage = (*MemoryStorage)(nil)
