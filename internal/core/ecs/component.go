package ecs

import "slices"

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID)
}

// Store is a generic typed map store for ECS components.
//
// A tracked store records removals until drained so a system can react to
// components that disappeared since it last ran (despawned entities included).
type Store[T any] struct {
	data    map[EntityID]*T
	track   bool
	removed []EntityID
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		data: make(map[EntityID]*T, 64),
	}
}

// NewTrackedStore returns a store that records removals. Exactly one system
// should drain it.
func NewTrackedStore[T any]() *Store[T] {
	s := NewStore[T]()
	s.track = true
	return s
}

func (s *Store[T]) Set(id EntityID, c *T) {
	s.data[id] = c
}

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

// Remove deletes the component. Tracked stores record the removal; absent
// ids are not recorded.
func (s *Store[T]) Remove(id EntityID) {
	if _, ok := s.data[id]; !ok {
		return
	}
	delete(s.data, id)
	if s.track {
		s.removed = append(s.removed, id)
	}
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

// IDs returns the ids holding this component in ascending order.
func (s *Store[T]) IDs() []EntityID {
	ids := make([]EntityID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Each visits components in ascending id order. fn may remove the visited
// component.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for _, id := range s.IDs() {
		if c, ok := s.data[id]; ok {
			fn(id, c)
		}
	}
}

// DrainRemoved returns the ids removed since the previous drain, oldest
// first, and resets the record.
func (s *Store[T]) DrainRemoved() []EntityID {
	out := s.removed
	s.removed = nil
	return out
}
