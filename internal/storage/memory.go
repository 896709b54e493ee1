package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Backend. It copies bytes on the way in and out so
// stored values can't be mutated through a caller's slice.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, collection, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if value, ok := m.collections[collection][key]; ok {
		return append([]byte(nil), value...), nil
	}
	return nil, ErrNotFound
}

func (m *Memory) Put(_ context.Context, collection, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries, ok := m.collections[collection]
	if !ok {
		entries = make(map[string][]byte)
		m.collections[collection] = entries
	}
	entries[key] = append([]byte(nil), value...)
	return nil
}

// Len reports how many keys are stored in collection. Tests use it to assert
// that rejected operations left no write behind.
func (m *Memory) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}
