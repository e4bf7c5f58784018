package store

import (
	"context"
	"sync"
)

const defaultMemoryCapacity = 100

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore keeps the most recent records up to its capacity; older
// records are discarded as new ones arrive.
type MemoryStore struct {
	mu       sync.RWMutex
	records  []Record
	capacity int
}

// NewMemoryStore creates a [MemoryStore] retaining up to capacity records.
// A capacity of zero or less uses the default of 100.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryStore{
		records:  make([]Record, 0, capacity),
		capacity: capacity,
	}
}

// Append stores r, evicting the oldest record when the store is full.
func (m *MemoryStore) Append(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.records) == m.capacity {
		copy(m.records, m.records[1:])
		m.records = m.records[:len(m.records)-1]
	}
	m.records = append(m.records, r)
	return nil
}

// Recent returns a snapshot of up to limit records, newest first.
//
// The returned slice is a copy; modifications do not affect the store.
func (m *MemoryStore) Recent(_ context.Context, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.records)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]Record, 0, n)
	for i := len(m.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

// Len returns the number of retained records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Close is a no-op; it exists to satisfy [Store].
func (m *MemoryStore) Close() error {
	return nil
}
