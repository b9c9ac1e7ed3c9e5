// Package prefs persists user preferences in namespaced key/value stores and
// notifies watchers when they change.
package prefs

import (
	"errors"
	"sync"
)

// ErrClosed is returned by a Store after Close.
var ErrClosed = errors.New("prefs: store closed")

// Store is a namespaced string key/value store.
type Store interface {
	// Get returns the value and whether it was present.
	Get(namespace, key string) (string, bool, error)
	Put(namespace, key, value string) error
	// PutBatch writes every entry or none.
	PutBatch(namespace string, entries map[string]string) error
	Delete(namespace, key string) error
	// Clear removes every key in the namespace.
	Clear(namespace string) error
	Close() error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]string
	closed bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

func (m *MemoryStore) Get(namespace, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.data[namespace][key]
	return v, ok, nil
}

func (m *MemoryStore) Put(namespace, key, value string) error {
	return m.PutBatch(namespace, map[string]string{key: value})
}

func (m *MemoryStore) PutBatch(namespace string, entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	ns, ok := m.data[namespace]
	if !ok {
		ns = make(map[string]string, len(entries))
		m.data[namespace] = ns
	}
	for k, v := range entries {
		ns[k] = v
	}
	return nil
}

func (m *MemoryStore) Delete(namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.data[namespace], key)
	return nil
}

func (m *MemoryStore) Clear(namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.data, namespace)
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
