// Package index provides the canonical vector entry storage.
//
// The index owns the only authoritative copy of each entry. Clusters
// reference entries by ID and dereference through the index; they never hold
// copies of entry data.
package index

import "sort"

// Entry is a stored vector with its identifier and opaque metadata.
//
// The vector must be treated as read-only once stored; the index is the sole
// owner of its contents.
type Entry[T any] struct {
	ID       uint64    `json:"id"`
	Vector   []float32 `json:"vector"`
	Metadata T         `json:"metadata"`
}

// Memory is an in-memory map-backed index. It has no clustering knowledge.
type Memory[T any] struct {
	entries map[uint64]Entry[T]
}

// NewMemory creates a new in-memory index.
func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{
		entries: make(map[uint64]Entry[T]),
	}
}

// Put stores an entry, replacing any existing entry with the same ID.
func (m *Memory[T]) Put(e Entry[T]) {
	m.entries[e.ID] = e
}

// Get retrieves the entry with the given ID.
func (m *Memory[T]) Get(id uint64) (Entry[T], bool) {
	e, ok := m.entries[id]
	return e, ok
}

// Remove deletes the entry with the given ID and returns it.
func (m *Memory[T]) Remove(id uint64) (Entry[T], bool) {
	e, ok := m.entries[id]
	if !ok {
		var zero Entry[T]
		return zero, false
	}

	delete(m.entries, id)
	return e, true
}

// UpdateMetadata replaces the metadata of the entry with the given ID.
func (m *Memory[T]) UpdateMetadata(id uint64, metadata T) bool {
	e, ok := m.entries[id]
	if !ok {
		return false
	}

	e.Metadata = metadata
	m.entries[id] = e
	return true
}

// All returns a snapshot of all entries ordered by ID.
func (m *Memory[T]) All() []Entry[T] {
	out := make([]Entry[T], 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of entries currently stored.
func (m *Memory[T]) Len() int {
	return len(m.entries)
}
