// Package bridge ties native object identities to managed-side handles and
// runs the disposal protocols that decide who frees what and when. The
// registry is the single shared mutable structure between the two runtimes;
// every read-modify-write of a binding record happens under its one mutex.
package bridge

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vk/scriptbridge/internal/handle"
	"github.com/vk/scriptbridge/internal/variant"
)

// ErrAlreadyBound is returned when binding an identity that already has a
// record.
var ErrAlreadyBound = errors.New("already bound")

// Binding links one native identity to at most one managed handle.
// Inited == false implies Handle is the invalid sentinel.
type Binding struct {
	ObjectID variant.ObjectID
	TypeName string
	Inited   bool
	Handle   handle.Handle
}

// Registry holds the binding records. One global mutex; per-record locking
// is not justified by the load this layer sees.
type Registry struct {
	mu      sync.Mutex
	records map[variant.ObjectID]*Binding
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[variant.ObjectID]*Binding)}
}

// Bind creates an uninitialized record for the identity.
func (r *Registry) Bind(id variant.ObjectID, typeName string) (*Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bindLocked(id, typeName)
}

func (r *Registry) bindLocked(id variant.ObjectID, typeName string) (*Binding, error) {
	if _, ok := r.records[id]; ok {
		return nil, fmt.Errorf("registry: bind %d: %w", id, ErrAlreadyBound)
	}
	b := &Binding{ObjectID: id, TypeName: typeName}
	r.records[id] = b
	return b, nil
}

// Lookup returns a snapshot of the identity's record.
func (r *Registry) Lookup(id variant.ObjectID) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.records[id]
	if !ok {
		return Binding{}, false
	}
	return *b, true
}

// Unbind removes the identity's record. Unknown identities are ignored.
func (r *Registry) Unbind(id variant.ObjectID) {
	r.mu.Lock()
	delete(r.records, id)
	r.mu.Unlock()
}

// Count returns the number of records. Leak assertions in tests.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
