package storage

import (
	"context"
	"sync"

	"recipebook"
)

// MemoryBridge keeps blobs in a map. Safe for concurrent access.
type MemoryBridge struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	loadErr error
	saveErr error
	saves   int
}

// NewMemoryBridge returns an empty in-process bridge.
func NewMemoryBridge() *MemoryBridge {
	return &MemoryBridge{blobs: make(map[string][]byte)}
}

func (m *MemoryBridge) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}
	b, ok := m.blobs[key]
	if !ok {
		return nil, recipebook.ErrBlobNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryBridge) Save(ctx context.Context, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.blobs[key] = append([]byte(nil), blob...)
	return nil
}

// FailSaves makes every later Save return err. A nil err restores normal saves.
func (m *MemoryBridge) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// Saves returns the number of Save calls, failed ones included.
func (m *MemoryBridge) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Blob returns a copy of what is stored under key.
func (m *MemoryBridge) Blob(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

func (m *MemoryBridge) Close() error { return nil }
