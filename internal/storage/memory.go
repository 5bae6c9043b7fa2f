package storage

import (
	"context"
	"sync"
)

// MemoryRecorder keeps records in process memory. Used for development and tests.
type MemoryRecorder struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemoryRecorder() *MemoryRecorder { return &MemoryRecorder{} }

func (m *MemoryRecorder) AppendInteraction(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *MemoryRecorder) LoadInteractions(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Record(nil), m.records...), nil
}

func (m *MemoryRecorder) Ping(_ context.Context) error { return nil }
