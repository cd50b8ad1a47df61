package db

import (
	"context"
	"sync"
	"time"
)

type memStore struct {
	mu   sync.RWMutex
	byID map[string]Record
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[string]Record)}
}

func (m *memStore) Get(ctx context.Context, path string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.byID[path]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (m *memStore) Put(ctx context.Context, r Record) error {
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[r.Path] = r
	return nil
}

func (m *memStore) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, path)
	return nil
}

func (m *memStore) Close() error { return nil }
