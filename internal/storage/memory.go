package storage

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Substrate.
type Memory struct {
	mu       sync.RWMutex
	entries  map[string]string
	used     int64
	capacity int64
}

// NewMemory returns an empty in-memory substrate. A capacity <= 0 means unlimited.
func NewMemory(capacity int64) *Memory {
	return &Memory{entries: make(map[string]string), capacity: capacity}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.entries[key]
	return value, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used + EntrySize(key, value)
	if old, ok := m.entries[key]; ok {
		used -= EntrySize(key, old)
	}
	if m.capacity > 0 && used > m.capacity {
		return quotaError(key, EntrySize(key, value), m.capacity)
	}
	m.entries[key] = value
	m.used = used
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.entries[key]; ok {
		m.used -= EntrySize(key, old)
		delete(m.entries, key)
	}
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]string)
	m.used = 0
	return nil
}

func (m *Memory) Keys(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Close() error { return nil }
