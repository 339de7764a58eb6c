package util

import "sync"

// ConcurrentMap is a mutex-guarded map for caches shared across concurrent
// calls.
type ConcurrentMap[K comparable, V any] struct {
	mutex sync.RWMutex
	mp    map[K]V
}

func NewConcurrentMap[K comparable, V any]() *ConcurrentMap[K, V] {
	return &ConcurrentMap[K, V]{
		mp: make(map[K]V),
	}
}

func (m *ConcurrentMap[K, V]) Get(key K) (V, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	v, ok := m.mp[key]
	return v, ok
}

func (m *ConcurrentMap[K, V]) Set(key K, value V) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.mp[key] = value
}

func (m *ConcurrentMap[K, V]) Delete(key K) (V, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	v, ok := m.mp[key]
	if !ok {
		return v, false
	}
	delete(m.mp, key)
	return v, true
}

func (m *ConcurrentMap[K, V]) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.mp)
}
