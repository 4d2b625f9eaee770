package storage

import (
	"sync"
)

// dirtyHeadroom bounds how far dirty objects may push storage past capacity
const dirtyHeadroom = 4

// MemoryStorage - bounded in-memory object storage that remembers insertion
// order. Once capacity is reached the oldest clean object is evicted. Dirty
// objects are only evicted, oldest first, beyond dirtyHeadroom times capacity.
// K - key type, V - stored object type
type MemoryStorage[K comparable, V any] struct {
	data     map[K]V
	order    []K
	dirty    map[K]bool
	capacity int
	mutex    sync.RWMutex
}

// NewMemoryStorage creates a new storage. A capacity below 1 means unbounded.
func NewMemoryStorage[K comparable, V any](capacity int) *MemoryStorage[K, V] {
	return &MemoryStorage[K, V]{
		data:     make(map[K]V),
		dirty:    make(map[K]bool),
		capacity: capacity,
	}
}

// Set adds or updates an object and marks it dirty
func (s *MemoryStorage[K, V]) Set(key K, value V) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.data[key]; exists {
		s.removeFromOrder(key)
	}
	s.data[key] = value
	s.order = append(s.order, key)
	s.dirty[key] = true

	for s.capacity > 0 && len(s.order) > s.capacity {
		victim := s.oldestClean()
		if victim < 0 {
			if len(s.order) <= s.capacity*dirtyHeadroom {
				break
			}
			victim = 0
		}
		key := s.order[victim]
		s.order = append(s.order[:victim], s.order[victim+1:]...)
		delete(s.data, key)
		delete(s.dirty, key)
	}
}

func (s *MemoryStorage[K, V]) oldestClean() int {
	for i, k := range s.order {
		if !s.dirty[k] {
			return i
		}
	}
	return -1
}

// Get returns an object by key
func (s *MemoryStorage[K, V]) Get(key K) (V, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, exists := s.data[key]
	return value, exists
}

// Delete removes an object by key
func (s *MemoryStorage[K, V]) Delete(key K) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.data[key]; !exists {
		return false
	}

	delete(s.data, key)
	delete(s.dirty, key)
	s.removeFromOrder(key)
	return true
}

// Latest returns the most recently set object
func (s *MemoryStorage[K, V]) Latest() (V, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var zero V
	if len(s.order) == 0 {
		return zero, false
	}
	return s.data[s.order[len(s.order)-1]], true
}

// Values returns all objects, oldest first
func (s *MemoryStorage[K, V]) Values() []V {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]V, 0, len(s.order))
	for _, k := range s.order {
		result = append(result, s.data[k])
	}
	return result
}

// GetDirty returns all dirty objects without clearing flags
func (s *MemoryStorage[K, V]) GetDirty() map[K]V {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make(map[K]V, len(s.dirty))
	for k := range s.dirty {
		if v, exists := s.data[k]; exists {
			result[k] = v
		}
	}
	return result
}

// ClearDirty clears dirty flags for provided keys and evicts clean objects
// held past capacity
func (s *MemoryStorage[K, V]) ClearDirty(keys []K) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, k := range keys {
		delete(s.dirty, k)
	}
	for s.capacity > 0 && len(s.order) > s.capacity {
		victim := s.oldestClean()
		if victim < 0 {
			return
		}
		key := s.order[victim]
		s.order = append(s.order[:victim], s.order[victim+1:]...)
		delete(s.data, key)
	}
}

// Count returns the number of objects
func (s *MemoryStorage[K, V]) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

func (s *MemoryStorage[K, V]) removeFromOrder(key K) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
