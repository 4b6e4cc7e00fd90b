package blobstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/filemill/internal/common"
)

type memoryBlob struct {
	contentType string
	data        []byte
}

// MemoryStore is an in-memory Store used by tests and the "memory" backend.
// Safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	container string
	blobs     map[string]memoryBlob
}

func NewMemoryStore(container string) *MemoryStore {
	return &MemoryStore{
		container: container,
		blobs:     make(map[string]memoryBlob),
	}
}

func (m *MemoryStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty blob key", common.ErrInvalidArgument)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.blobs[key] = memoryBlob{contentType: contentType, data: cp}
	return m.URI(key), nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, "", common.ErrFileNotFound
	}
	cp := make([]byte, len(b.data))
	copy(cp, b.data)
	return cp, b.contentType, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[key]; !ok {
		return false, nil
	}
	delete(m.blobs, key)
	return true, nil
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]BlobInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var infos []BlobInfo
	for key, b := range m.blobs {
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		infos = append(infos, BlobInfo{
			Key:         key,
			URI:         m.URI(key),
			ContentType: b.contentType,
			SizeBytes:   int64(len(b.data)),
		})
	}
	return infos, nil
}

func (m *MemoryStore) URI(key string) string {
	return "mem://" + m.container + "/" + key
}

func (m *MemoryStore) ParseKey(uri string) (string, error) {
	base := "mem://" + m.container + "/"
	if !strings.HasPrefix(uri, base) {
		return "", fmt.Errorf("%w: uri %q is outside container %q", common.ErrInvalidArgument, uri, m.container)
	}
	key := strings.TrimPrefix(uri, base)
	if key == "" {
		return "", fmt.Errorf("%w: empty blob key", common.ErrInvalidArgument)
	}
	return key, nil
}
