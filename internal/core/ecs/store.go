package ecs

import "sync"

// Store is a concurrency-safe typed map keyed by ObjectID.
type Store[T any] struct {
	mu   sync.RWMutex
	data map[ObjectID]*T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		data: make(map[ObjectID]*T, 256),
	}
}

// Add inserts v under id unless the id is already present. It reports
// whether the value was inserted.
func (s *Store[T]) Add(id ObjectID, v *T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; ok {
		return false
	}
	s.data[id] = v
	return true
}

func (s *Store[T]) Get(id ObjectID) (*T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[id]
	return v, ok
}

// Remove deletes id and reports whether it was present.
func (s *Store[T]) Remove(id ObjectID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return false
	}
	delete(s.data, id)
	return true
}

func (s *Store[T]) Has(id ObjectID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Snapshot copies the current values so callers can iterate without
// holding the lock.
func (s *Store[T]) Snapshot() []*T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*T, 0, len(s.data))
	for _, v := range s.data {
		out = append(out, v)
	}
	return out
}
