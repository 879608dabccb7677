package storage

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]string)}
}

func (m *MemoryStore) ReadBlob(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.blobs[key]
	return v, ok, nil
}

func (m *MemoryStore) WriteBlob(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[key] = value
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
