package object

import (
	"sync"
	"sync/atomic"

	"github.com/vk/scriptbridge/internal/variant"
)

// FreeHook observes native object destruction. The lifetime bridge
// registers one so a dying native object collapses its binding.
type FreeHook func(*Object)

// DB is the instance database: every live native object, keyed by identity.
type DB struct {
	mu      sync.RWMutex
	objects map[variant.ObjectID]*Object
	nextID  atomic.Uint64
	hook    FreeHook
}

// NewDB creates an empty database. IDs start at 1.
func NewDB() *DB {
	return &DB{objects: make(map[variant.ObjectID]*Object)}
}

// SetFreeHook installs the destruction observer. One observer is enough:
// only the lifetime bridge watches.
func (db *DB) SetFreeHook(h FreeHook) {
	db.mu.Lock()
	db.hook = h
	db.mu.Unlock()
}

// NewObject creates and registers a plain object of the given class.
func (db *DB) NewObject(class string) *Object {
	o := &Object{class: class, db: db}
	db.register(&o.id, o)
	return o
}

// NewRefCounted creates and registers a ref-counted object with an initial
// reference.
func (db *DB) NewRefCounted(class string) *RefCounted {
	rc := &RefCounted{}
	rc.class = class
	rc.db = db
	rc.rc = rc
	rc.InitRef()
	db.register(&rc.id, &rc.Object)
	return rc
}

func (db *DB) register(id *variant.ObjectID, o *Object) {
	*id = variant.ObjectID(db.nextID.Add(1))
	db.mu.Lock()
	db.objects[*id] = o
	db.mu.Unlock()
}

// Get returns the live object with the given identity, or nil.
func (db *DB) Get(id variant.ObjectID) *Object {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.objects[id]
}

// Count returns the number of live objects.
func (db *DB) Count() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.objects)
}

func (db *DB) remove(o *Object) {
	db.mu.Lock()
	delete(db.objects, o.id)
	hook := db.hook
	db.mu.Unlock()

	if hook != nil {
		hook(o)
	}
}
