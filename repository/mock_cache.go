package repository

import (
	"context"
	"errors"
	"sync"
)

// MockCache is an in-process CacheRepository. It doubles as the cache when
// Redis is disabled.
type MockCache struct {
	mu   sync.RWMutex
	Data map[string]string

	// FailSet makes every Set fail, for exercising error paths.
	FailSet bool
}

func NewMockCache() *MockCache {
	return &MockCache{
		Data: make(map[string]string),
	}
}

func (m *MockCache) Get(_ context.Context, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(_ context.Context, key string, value string) error {
	if m.FailSet {
		return errors.New("mock cache: set failed")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
	return nil
}
