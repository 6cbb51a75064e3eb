// Package store persists session state as opaque values under string keys.
package store

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when a key has never been set or was deleted.
var ErrNotFound = errors.New("key not found")

// KV is a last-writer-wins key-value store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Batcher is implemented by stores that can replace several keys as one write,
// so readers never observe a mix of old and new values.
type Batcher interface {
	SetMany(ctx context.Context, values map[string][]byte) error
}

// Memory is an in-process KV, used by tests and the extract command.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) SetMany(_ context.Context, values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range values {
		m.data[key] = append([]byte(nil), value...)
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
