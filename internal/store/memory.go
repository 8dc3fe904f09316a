package store

import (
	"context"
	"sync"
)

// MemorySlot keeps arrays in process memory. Nothing survives a restart.
type MemorySlot struct {
	mu   sync.RWMutex
	data map[string][]string
}

func NewMemory() *MemorySlot {
	return &MemorySlot{data: make(map[string][]string)}
}

func (m *MemorySlot) Load(_ context.Context, key string) ([]string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return cloneStrings(v), true, nil
}

func (m *MemorySlot) Save(_ context.Context, key string, values []string) error {
	m.mu.Lock()
	m.data[key] = cloneStrings(values)
	m.mu.Unlock()
	return nil
}

func (m *MemorySlot) HealthCheck(context.Context) error { return nil }

func (m *MemorySlot) Close() error { return nil }
