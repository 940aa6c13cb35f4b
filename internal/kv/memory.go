package kv

import (
	"fmt"
	"sync"
)

// Memory is an in-memory Store for tests and ephemeral use.
type Memory struct {
	mu       sync.Mutex
	data     map[string][]byte
	maxBytes int64 // 0 = unlimited
	failSets int   // test hook: fail the next N Set calls with ErrQuotaExceeded
}

// Verify Memory implements Store
var _ Store = (*Memory)(nil)

// NewMemory creates an unbounded in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// NewMemoryWithQuota creates an in-memory store with a value-size budget.
func NewMemoryWithQuota(maxBytes int64) *Memory {
	return &Memory{data: make(map[string][]byte), maxBytes: maxBytes}
}

// FailNextSets makes the next n Set calls fail with ErrQuotaExceeded.
func (m *Memory) FailNextSets(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSets = n
}

// Get retrieves the value for a key.
func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores a value under key.
func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSets > 0 {
		m.failSets--
		return fmt.Errorf("write to %q: %w", key, ErrQuotaExceeded)
	}

	if m.maxBytes > 0 {
		var current int64
		for k, v := range m.data {
			if k == key {
				continue
			}
			current += int64(len(v))
		}
		if current+int64(len(value)) > m.maxBytes {
			return fmt.Errorf("write %d bytes to %q: %w", len(value), key, ErrQuotaExceeded)
		}
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

// Delete removes a key.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys lists all stored keys.
func (m *Memory) Keys() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error {
	return nil
}
