package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"finance-ledger/internal/cache"
)

var _ cache.Cache = (*memoryCache)(nil)

// memoryCache is an in-process cache.Cache. A hook registered with
// onFirstSet runs after the next Set has stored its value, which lets a test
// commit a write between a reader's load and its fill.
type memoryCache struct {
	mu          sync.Mutex
	values      map[string][]byte
	generations map[string]int64
	afterSet    func()
	hits        int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		values:      make(map[string][]byte),
		generations: make(map[string]int64),
	}
}

func (m *memoryCache) onFirstSet(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.afterSet = fn
}

func (m *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.values[key]
	if !ok {
		return false, nil
	}
	m.hits++
	return true, json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.values[key] = raw
	hook := m.afterSet
	m.afterSet = nil
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryCache) Generation(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generations[key], nil
}

func (m *memoryCache) Bump(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		m.generations[key]++
	}
	return nil
}

func (m *memoryCache) Ping(context.Context) error {
	return nil
}
