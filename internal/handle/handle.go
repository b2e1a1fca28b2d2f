// Package handle implements the strength-tagged handle table tying native
// code to managed wrapper objects.
//
// Native code cannot hold managed references directly; it stores an opaque
// handle instead. A Strong handle keeps its target alive against
// collection, a Weak handle does not. Weak handles are write-only from the
// native side: they exist only to be stored and later released, never
// dereferenced.
package handle

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Strength tags a handle as collection-pinning or not.
type Strength uint8

const (
	Strong Strength = iota
	Weak
)

func (s Strength) String() string {
	if s == Weak {
		return "weak"
	}
	return "strong"
}

// Handle is an opaque, strength-tagged identifier for a managed wrapper.
// The zero Handle is invalid and doubles as the "no handle" sentinel.
type Handle struct {
	id       uint64
	strength Strength
}

// IsValid reports whether the handle refers to an allocation.
func (h Handle) IsValid() bool { return h.id != 0 }

// IsStrong reports whether the handle pins its target.
func (h Handle) IsStrong() bool { return h.id != 0 && h.strength == Strong }

func (h Handle) String() string {
	if h.id == 0 {
		return "handle(invalid)"
	}
	return fmt.Sprintf("handle(%d,%s)", h.id, h.strength)
}

type entry struct {
	target   any
	strength Strength
	released bool
}

// Table allocates and resolves handles. All methods are safe for concurrent
// use. Release takes only the table lock and never calls into user code, so
// it is safe to invoke from a finalizer thread while allocation is blocked.
type Table struct {
	mu      sync.Mutex
	entries map[uint64]*entry
	nextID  atomic.Uint64
}

// NewTable creates an empty handle table. IDs start at 1; 0 is reserved as
// the invalid sentinel.
func NewTable() *Table {
	t := &Table{entries: make(map[uint64]*entry)}
	t.nextID.Store(0)
	return t
}

// Alloc stores target and returns a new handle of the given strength.
func (t *Table) Alloc(target any, strength Strength) Handle {
	id := t.nextID.Add(1)

	t.mu.Lock()
	t.entries[id] = &entry{target: target, strength: strength}
	t.mu.Unlock()

	return Handle{id: id, strength: strength}
}

// Release frees the handle. Releasing the same handle twice, or a handle
// this table never allocated, is a lifetime bug in the caller and panics.
func (t *Table) Release(h Handle) {
	if !h.IsValid() {
		panic("handle: release of invalid handle")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[h.id]
	if !ok || e.released {
		panic(fmt.Sprintf("handle: double release of %s", h))
	}
	e.released = true
	delete(t.entries, h.id)
}

// Resolve returns the target of a live Strong handle. Resolving a Weak
// handle is a contract violation: the native side may store weak handles
// but never dereference them.
func (t *Table) Resolve(h Handle) (any, error) {
	if !h.IsValid() {
		return nil, fmt.Errorf("handle: resolve: %w", ErrInvalid)
	}
	if h.strength != Strong {
		panic(fmt.Sprintf("handle: resolve of weak %s", h))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[h.id]
	if !ok || e.released {
		return nil, fmt.Errorf("handle: resolve %s: %w", h, ErrInvalid)
	}
	return e.target, nil
}

// IsReleased reports whether the handle is no longer live. Used by disposal
// paths that must skip already-released handles without touching them.
func (t *Table) IsReleased(h Handle) bool {
	if !h.IsValid() {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[h.id]
	return !ok || e.released
}

// Count returns the number of live handles. Useful for leak assertions.
func (t *Table) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
