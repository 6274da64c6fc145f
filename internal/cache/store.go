package cache

import (
	"sync"

	"github.com/mtafreight/dispatch-gateway/pkg/metrics"
)

// Store keeps the newest-first working copy of one backend collection.
// Push events patch it in place; a full reload replaces it wholesale.
type Store[T any] struct {
	mu      sync.RWMutex
	items   []T
	idOf    func(T) string
	name    string
	metrics *metrics.GatewayMetrics
}

// NewStore returns an empty store keyed by the provided id extractor.
func NewStore[T any](name string, idOf func(T) string, m *metrics.GatewayMetrics) *Store[T] {
	return &Store[T]{idOf: idOf, name: name, metrics: m}
}

// Name identifies the store in logs and metrics.
func (s *Store[T]) Name() string {
	return s.name
}

// ReplaceAll swaps the full contents, preserving the given order.
func (s *Store[T]) ReplaceAll(items []T) {
	copied := make([]T, len(items))
	copy(copied, items)

	s.mu.Lock()
	s.items = copied
	size := len(s.items)
	s.mu.Unlock()
	s.metrics.SetCacheSize(s.name, size)
}

// ApplyCreated prepends the item unless an entry with the same id already
// exists, so replayed create events stay idempotent.
func (s *Store[T]) ApplyCreated(item T) bool {
	id := s.idOf(item)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if s.idOf(existing) == id {
			return false
		}
	}
	s.items = append([]T{item}, s.items...)
	s.metrics.SetCacheSize(s.name, len(s.items))
	return true
}

// ApplyUpdated replaces the entry with the same id in place. Updates for
// unknown ids are dropped rather than inserted.
func (s *Store[T]) ApplyUpdated(item T) bool {
	id := s.idOf(item)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.items {
		if s.idOf(existing) == id {
			s.items[i] = item
			return true
		}
	}
	return false
}

// ApplyDeleted removes the entry with the given id.
func (s *Store[T]) ApplyDeleted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.items {
		if s.idOf(existing) == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.metrics.SetCacheSize(s.name, len(s.items))
			return true
		}
	}
	return false
}

// Patch applies fn to the entry with the given id.
func (s *Store[T]) Patch(id string, fn func(T) T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.items {
		if s.idOf(existing) == id {
			s.items[i] = fn(existing)
			return true
		}
	}
	return false
}

// Get returns the entry with the given id.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, existing := range s.items {
		if s.idOf(existing) == id {
			return existing, true
		}
	}
	var zero T
	return zero, false
}

// Snapshot returns a copy of the current contents in cache order.
func (s *Store[T]) Snapshot() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Len reports the number of cached entries.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
