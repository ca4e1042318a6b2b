package objectstore

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Store with the same conditional-write semantics
// as the real backend. It backs tests and offline runs.
type Memory struct {
	mu      sync.Mutex
	objects map[string]*Object
	serial  int
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]*Object)}
}

func (m *Memory) Get(_ context.Context, key string) (*Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	data := make([]byte, len(obj.Data))
	copy(data, obj.Data)
	return &Object{Data: data, ETag: obj.ETag}, nil
}

func (m *Memory) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(key, data)
	return nil
}

func (m *Memory) PutIfMatch(_ context.Context, key string, data []byte, etag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[key]
	if !ok || obj.ETag != etag {
		return ErrPreconditionFailed
	}
	m.store(key, data)
	return nil
}

func (m *Memory) PutIfAbsent(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; ok {
		return ErrPreconditionFailed
	}
	m.store(key, data)
	return nil
}

// Keys returns all stored keys, for test assertions.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		keys = append(keys, key)
	}
	return keys
}

func (m *Memory) store(key string, data []byte) {
	m.serial++
	copied := make([]byte, len(data))
	copy(copied, data)
	m.objects[key] = &Object{Data: copied, ETag: fmt.Sprintf("v%d", m.serial)}
}
