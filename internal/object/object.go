// Package object models the native, manually managed side of the boundary:
// objects with stable identities, the ref-counted ownership kind with its
// atomic count, the instance database, and the signal hub the callable
// bridge connects to. The bridge never allocates these except when asked to
// instantiate a script-backed type; tests and the embedding engine do.
package object

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/scriptbridge/internal/handle"
	"github.com/vk/scriptbridge/internal/variant"
)

// DisposeState is the script instance teardown state machine. A second
// disposal attempt while Disposing is structurally a no-op, replacing the
// reentrancy boolean of older bridges.
type DisposeState int32

const (
	StateLive DisposeState = iota
	StateDisposing
	StateUnbound
)

// ScriptInstance is the managed script attached to a native object. The
// managed runtime provides implementations; the coordinator only drives the
// protocol.
type ScriptInstance interface {
	// GCHandle returns the strong handle the instance holds on its managed
	// counterpart.
	GCHandle() handle.Handle

	// State returns the current teardown state.
	State() DisposeState

	// Disposed tears down a plain object's script instance: it must release
	// the instance's strong handle. Called at most once, never while
	// Disposing.
	Disposed()

	// DisposedBaseRef is the ref-counted counterpart. The instance decides,
	// from finalizer provenance and its own bookkeeping, whether the owner
	// dies or merely sheds the script instance. At most one of the two
	// results is true.
	DisposedBaseRef(isFinalizer bool) (deleteOwner, removeScriptInstance bool)

	// ConnectEventSignal attaches the instance's event adapter for a signal.
	ConnectEventSignal(signal string)
}

// SignalHandler receives a native signal emission.
type SignalHandler func(args []variant.Variant)

type signalConnection struct {
	id      uint64
	handler SignalHandler
}

// Object is a plain native object: identity, class name, optional script
// instance, and a minimal signal hub.
type Object struct {
	id    variant.ObjectID
	class string
	db    *DB
	rc    *RefCounted // non-nil when this object is the embedded half of a RefCounted

	mu         sync.Mutex
	script     ScriptInstance
	signals    map[string][]signalConnection
	nextConnID uint64
	destroyed  bool
}

// ID returns the object's stable identity.
func (o *Object) ID() variant.ObjectID { return o.id }

// Class returns the object's native class name.
func (o *Object) Class() string { return o.class }

// AsRefCounted returns the object's ref-counted form, or nil for plain
// objects. The ownership kind selects which disposal protocol applies.
func (o *Object) AsRefCounted() *RefCounted { return o.rc }

// ScriptInstance returns the attached script instance, or nil.
func (o *Object) ScriptInstance() ScriptInstance {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.script
}

// SetScriptInstance attaches or (with nil) detaches the script instance.
func (o *Object) SetScriptInstance(si ScriptInstance) {
	o.mu.Lock()
	o.script = si
	o.mu.Unlock()
}

// Connect registers a handler for a named signal and returns a connection
// id usable with Disconnect.
func (o *Object) Connect(signal string, h SignalHandler) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.signals == nil {
		o.signals = make(map[string][]signalConnection)
	}
	o.nextConnID++
	o.signals[signal] = append(o.signals[signal], signalConnection{id: o.nextConnID, handler: h})
	return o.nextConnID
}

// Disconnect removes a connection. Unknown ids are ignored.
func (o *Object) Disconnect(signal string, connID uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	conns := o.signals[signal]
	for i, c := range conns {
		if c.id == connID {
			o.signals[signal] = append(conns[:i], conns[i+1:]...)
			return
		}
	}
}

// EmitSignal invokes every handler connected to the signal. Handlers run
// outside the object lock; a handler may disconnect itself.
func (o *Object) EmitSignal(signal string, args ...variant.Variant) {
	o.mu.Lock()
	conns := make([]signalConnection, len(o.signals[signal]))
	copy(conns, o.signals[signal])
	o.mu.Unlock()

	for _, c := range conns {
		c.handler(args)
	}
}

// Free destroys the object: it leaves the database and the registered
// destruction hook runs. Freeing twice is a native-side lifetime bug.
func (o *Object) Free() {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		panic(fmt.Sprintf("object: double free of %s:%d", o.class, o.id))
	}
	o.destroyed = true
	o.mu.Unlock()

	if o.db != nil {
		o.db.remove(o)
	}
}

// IsDestroyed reports whether Free has run.
func (o *Object) IsDestroyed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.destroyed
}

// String renders the host's debug form without consulting the script, which
// could recurse back into stringification.
func (o *Object) String() string {
	return fmt.Sprintf("[%s:%d]", o.class, o.id)
}

// RefCounted is a native object with shared ownership. The count is a bare
// atomic so the no-binding decrement path never takes a registry or
// database lock.
type RefCounted struct {
	Object
	refcount atomic.Int32
}

// InitRef sets the initial reference, returning false if the object was
// already referenced.
func (rc *RefCounted) InitRef() bool {
	return rc.refcount.CompareAndSwap(0, 1)
}

// Reference adds a reference and reports whether the object was alive to
// take it.
func (rc *RefCounted) Reference() bool {
	for {
		old := rc.refcount.Load()
		if old == 0 {
			return false
		}
		if rc.refcount.CompareAndSwap(old, old+1) {
			return true
		}
	}
}

// Unreference drops a reference and reports whether the count reached zero,
// i.e. the caller must destroy the object.
func (rc *RefCounted) Unreference() bool {
	n := rc.refcount.Add(-1)
	if n < 0 {
		panic(fmt.Sprintf("object: unreference underflow on %s", rc.String()))
	}
	return n == 0
}

// RefCount returns the current count. Test and diagnostic use.
func (rc *RefCounted) RefCount() int32 { return rc.refcount.Load() }
