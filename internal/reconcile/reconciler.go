// Package reconcile maintains an ordered, id-unique, filtered collection that
// is kept current by applying individual insert/update/delete events instead
// of refetching the whole data set.
package reconcile

import (
	"slices"
	"sync"
)

// Outcome reports what applying an event did to the collection.
type Outcome int

const (
	Ignored Outcome = iota
	Inserted
	Replaced
	Removed
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Replaced:
		return "replaced"
	case Removed:
		return "removed"
	default:
		return "ignored"
	}
}

// Changed reports whether the collection was modified.
func (o Outcome) Changed() bool { return o != Ignored }

// Reconciler holds the collection. Invariants after every operation:
//   - items are ordered by less, ties keep their previous relative order
//   - no two items share a key
//   - every item satisfies the visibility predicate
//
// A Reconciler is safe for concurrent use.
type Reconciler[T any] struct {
	key     func(T) string
	less    func(a, b T) bool
	visible func(T) bool

	mu    sync.RWMutex
	items []T
}

// New builds a Reconciler. A nil visible predicate admits every item.
func New[T any](key func(T) string, less func(a, b T) bool, visible func(T) bool) *Reconciler[T] {
	if visible == nil {
		visible = func(T) bool { return true }
	}
	return &Reconciler[T]{key: key, less: less, visible: visible}
}

// Insert adds item if it is visible. An item whose key is already present
// replaces the held copy, so a repeated insert never duplicates.
func (r *Reconciler[T]) Insert(item T) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.visible(item) {
		return Ignored
	}
	return r.upsertLocked(item)
}

// Update replaces or inserts item when it is visible and removes it when it
// no longer is.
func (r *Reconciler[T]) Update(item T) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.visible(item) {
		if r.removeLocked(r.key(item)) {
			return Removed
		}
		return Ignored
	}
	return r.upsertLocked(item)
}

// Delete removes the item with the given key regardless of visibility.
func (r *Reconciler[T]) Delete(key string) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.removeLocked(key) {
		return Removed
	}
	return Ignored
}

// Replace discards the collection and installs the visible items of
// snapshot. Duplicate keys in the snapshot collapse to the last occurrence.
func (r *Reconciler[T]) Replace(snapshot []T) {
	next := make([]T, 0, len(snapshot))
	pos := make(map[string]int, len(snapshot))
	for _, item := range snapshot {
		if !r.visible(item) {
			continue
		}
		k := r.key(item)
		if i, ok := pos[k]; ok {
			next[i] = item
			continue
		}
		pos[k] = len(next)
		next = append(next, item)
	}
	slices.SortStableFunc(next, r.compare)

	r.mu.Lock()
	r.items = next
	r.mu.Unlock()
}

// Snapshot returns a copy of the ordered collection.
func (r *Reconciler[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.items)
}

// Get returns the held item with the given key.
func (r *Reconciler[T]) Get(key string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexLocked(key); i >= 0 {
		return r.items[i], true
	}
	var zero T
	return zero, false
}

// Len returns the number of held items.
func (r *Reconciler[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *Reconciler[T]) upsertLocked(item T) Outcome {
	outcome := Inserted
	if i := r.indexLocked(r.key(item)); i >= 0 {
		r.items[i] = item
		outcome = Replaced
	} else {
		r.items = append(r.items, item)
	}
	slices.SortStableFunc(r.items, r.compare)
	return outcome
}

func (r *Reconciler[T]) removeLocked(key string) bool {
	i := r.indexLocked(key)
	if i < 0 {
		return false
	}
	r.items = slices.Delete(r.items, i, i+1)
	return true
}

func (r *Reconciler[T]) indexLocked(key string) int {
	return slices.IndexFunc(r.items, func(item T) bool { return r.key(item) == key })
}

func (r *Reconciler[T]) compare(a, b T) int {
	switch {
	case r.less(a, b):
		return -1
	case r.less(b, a):
		return 1
	default:
		return 0
	}
}
