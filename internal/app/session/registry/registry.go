// Package registry provides a thread-safe registry of sessions keyed by ID.
package registry

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

var (
	ErrNotFound  = errors.New("entry not found")
	ErrDuplicate = errors.New("entry already registered")
	ErrFull      = errors.New("registry is full")
)

// Entry is anything addressable by ID.
type Entry interface {
	ID() string
}

// Registry manages entries with thread-safe access.
type Registry[T Entry] struct {
	mu      sync.RWMutex
	entries map[string]T
	limit   int // 0: unlimited
}

// New creates a new registry holding at most limit entries (0: unlimited).
func New[T Entry](limit int) *Registry[T] {
	return &Registry[T]{
		entries: make(map[string]T),
		limit:   limit,
	}
}

// Add registers an entry.
func (r *Registry[T]) Add(e T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := e.ID()
	if _, exists := r.entries[id]; exists {
		return errors.Wrapf(ErrDuplicate, "id=%s", id)
	}
	if r.limit > 0 && len(r.entries) >= r.limit {
		return errors.Wrapf(ErrFull, "limit=%d", r.limit)
	}
	r.entries[id] = e
	return nil
}

// Get retrieves an entry by ID.
func (r *Registry[T]) Get(id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return e, nil
}

// Remove unregisters an entry and returns it.
func (r *Registry[T]) Remove(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	return e, ok
}

// All returns all entries ordered by ID.
func (r *Registry[T]) All() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make([]T, 0, len(ids))
	for _, id := range ids {
		result = append(result, r.entries[id])
	}
	return result
}

// Count returns the number of entries.
func (r *Registry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
