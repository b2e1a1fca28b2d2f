package bridge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/scriptbridge/internal/classdb"
	"github.com/vk/scriptbridge/internal/ctxlog"
	"github.com/vk/scriptbridge/internal/handle"
	"github.com/vk/scriptbridge/internal/object"
	"github.com/vk/scriptbridge/internal/variant"
)

// ManagedRuntime is the managed side's callback surface. The coordinator
// never constructs managed wrappers itself; it asks the runtime.
type ManagedRuntime interface {
	// CreateManagedForBinding builds a fresh managed wrapper of the given
	// type for the native identity.
	CreateManagedForBinding(typeName string, id variant.ObjectID) (any, error)

	// PreSetup runs the second-phase setup on a wrapper that was handed over
	// before its managed construction finished.
	PreSetup(target any) error
}

// Coordinator owns the binding registry and drives the lifetime protocols
// for both ownership kinds. It registers itself as the object database's
// destruction hook, so a dying native object collapses its binding without
// the caller's help.
type Coordinator struct {
	registry *Registry
	handles  *handle.Table
	classes  *classdb.DB
	objects  *object.DB
	runtime  ManagedRuntime
	log      *slog.Logger
}

// NewCoordinator wires the bridge together and installs the destruction
// hook on the object database.
func NewCoordinator(ctx context.Context, objects *object.DB, classes *classdb.DB, handles *handle.Table, runtime ManagedRuntime) *Coordinator {
	c := &Coordinator{
		registry: NewRegistry(),
		handles:  handles,
		classes:  classes,
		objects:  objects,
		runtime:  runtime,
		log:      ctxlog.FromContext(ctx),
	}
	objects.SetFreeHook(c.objectFreed)
	return c
}

// Registry exposes the binding registry for lookups and leak assertions.
func (c *Coordinator) Registry() *Registry { return c.registry }

// objectFreed runs when a native object leaves the instance database. The
// record's removal is driven here, by native destruction, and nowhere else.
func (c *Coordinator) objectFreed(o *object.Object) {
	c.registry.mu.Lock()
	b, ok := c.registry.records[o.ID()]
	if ok {
		delete(c.registry.records, o.ID())
	}
	c.registry.mu.Unlock()

	if ok && b.Inited {
		c.handles.Release(b.Handle)
	}
}

// ObjectDisposed runs the plain-object disposal protocol: the managed
// wrapper of a non-ref-counted object was disposed or finalized.
func (c *Coordinator) ObjectDisposed(obj *object.Object) {
	if si := obj.ScriptInstance(); si != nil {
		if si.State() == object.StateDisposing {
			c.log.Debug("Disposal re-entered while disposing; ignoring.", "object", obj.String())
			return
		}
		// The script instance owns its handle; releasing it is its job.
		si.Disposed()
		obj.SetScriptInstance(nil)
		return
	}

	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()
	b, ok := c.registry.records[obj.ID()]
	if !ok || !b.Inited {
		return
	}
	h := b.Handle
	b.Inited = false
	b.Handle = handle.Handle{}
	// Release never calls user code, so holding the registry lock is fine
	// and keeps check-release-mark atomic as one unit.
	c.handles.Release(h)
}

// RefCountedDisposed runs the ref-counted disposal protocol, triggered by
// the count reaching zero or by the managed finalizer.
func (c *Coordinator) RefCountedDisposed(rc *object.RefCounted, isFinalizer bool) {
	if si := rc.ScriptInstance(); si != nil {
		if si.State() == object.StateDisposing {
			c.log.Debug("Disposal re-entered while disposing; ignoring.", "object", rc.String())
			return
		}
		deleteOwner, removeScriptInstance := si.DisposedBaseRef(isFinalizer)
		switch {
		case deleteOwner:
			rc.Free()
		case removeScriptInstance:
			rc.SetScriptInstance(nil)
		}
		return
	}

	// No script instance: drop the synthetic reference. If the object dies
	// with it, destruction collapses the binding via the free hook.
	if rc.Unreference() {
		rc.Free()
		return
	}

	// The native object outlives the managed wrapper.
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()
	b, ok := c.registry.records[rc.ID()]
	if !ok || !b.Inited {
		return
	}
	h := b.Handle
	b.Inited = false
	b.Handle = handle.Handle{}
	c.handles.Release(h)
}

// CreateOrRebind replaces the binding's handle with a freshly created
// managed wrapper. expectedPrior is the handle the caller believes the
// record holds; a mismatch means the caller raced a concurrent rebind and
// is fatal. A type mismatch between the object's class and the record's
// declared type fails with the prior state untouched.
func (c *Coordinator) CreateOrRebind(obj *object.Object, expectedPrior handle.Handle) (handle.Handle, error) {
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()

	b, ok := c.registry.records[obj.ID()]
	if !ok {
		if expectedPrior.IsValid() {
			panic(fmt.Sprintf("bridge: rebind of unbound %s with stale handle %s", obj.String(), expectedPrior))
		}
		b, _ = c.registry.bindLocked(obj.ID(), obj.Class())
	}
	if b.Handle != expectedPrior {
		panic(fmt.Sprintf("bridge: stale rebind of %s: expected %s, record holds %s", obj.String(), expectedPrior, b.Handle))
	}

	if !c.classes.IsParentClass(obj.Class(), b.TypeName) {
		return handle.Handle{}, fmt.Errorf("bridge: rebind %s as %q: %w", obj.String(), b.TypeName, variant.ErrTypeMismatch)
	}

	wasInited := b.Inited
	if b.Inited {
		c.handles.Release(b.Handle)
		b.Inited = false
		b.Handle = handle.Handle{}
	}

	target, err := c.runtime.CreateManagedForBinding(b.TypeName, obj.ID())
	if err != nil {
		return handle.Handle{}, fmt.Errorf("bridge: create wrapper for %s: %w", obj.String(), err)
	}
	h := c.handles.Alloc(target, handle.Strong)
	b.Handle = h
	b.Inited = true

	// The synthetic reference survives a rebind of an initialized record;
	// only the uninitialized-to-initialized transition adds it.
	if rc := obj.AsRefCounted(); rc != nil && !wasInited {
		rc.Reference()
	}
	return h, nil
}

// TieNativeManaged installs a binding for a wrapper with no script behind
// it.
func (c *Coordinator) TieNativeManaged(obj *object.Object, h handle.Handle) error {
	return c.tie(obj, h, obj.Class(), nil, false)
}

// TieUserManaged installs a binding for a script-backed wrapper and
// attaches its script instance.
func (c *Coordinator) TieUserManaged(obj *object.Object, h handle.Handle, typeName string, si object.ScriptInstance) error {
	return c.tie(obj, h, typeName, si, false)
}

// TieManagedWithPreSetup runs the managed runtime's second-phase setup on
// the wrapper, then installs the binding.
func (c *Coordinator) TieManagedWithPreSetup(obj *object.Object, h handle.Handle) error {
	return c.tie(obj, h, obj.Class(), nil, true)
}

func (c *Coordinator) tie(obj *object.Object, h handle.Handle, typeName string, si object.ScriptInstance, preSetup bool) error {
	if !h.IsValid() {
		panic(fmt.Sprintf("bridge: tie %s with invalid handle", obj.String()))
	}
	if preSetup {
		target, err := c.handles.Resolve(h)
		if err != nil {
			return fmt.Errorf("bridge: tie %s: %w", obj.String(), err)
		}
		if err := c.runtime.PreSetup(target); err != nil {
			return fmt.Errorf("bridge: pre-setup for %s: %w", obj.String(), err)
		}
	}

	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()

	b, err := c.registry.bindLocked(obj.ID(), typeName)
	if err != nil {
		return err
	}
	b.Handle = h
	b.Inited = true

	if si != nil {
		obj.SetScriptInstance(si)
	}
	if rc := obj.AsRefCounted(); rc != nil {
		rc.Reference()
	}
	return nil
}

// ScriptInstanceHandle returns the strong handle held by the object's
// script instance, or the invalid sentinel.
func (c *Coordinator) ScriptInstanceHandle(obj *object.Object) handle.Handle {
	if si := obj.ScriptInstance(); si != nil {
		return si.GCHandle()
	}
	return handle.Handle{}
}

// BindingHandle returns the handle of the object's initialized binding, or
// the invalid sentinel.
func (c *Coordinator) BindingHandle(obj *object.Object) handle.Handle {
	b, ok := c.registry.Lookup(obj.ID())
	if !ok || !b.Inited {
		return handle.Handle{}
	}
	return b.Handle
}

// ConnectEventSignal attaches the script instance's event adapter for the
// signal. Objects without a script instance ignore the request.
func (c *Coordinator) ConnectEventSignal(obj *object.Object, signal string) {
	if si := obj.ScriptInstance(); si != nil {
		si.ConnectEventSignal(signal)
		return
	}
	c.log.Debug("Event signal connect on scriptless object; ignoring.", "object", obj.String(), "signal", signal)
}

// NewScriptResource instantiates a native object of class and immediately
// binds a managed wrapper of typeName to it.
func (c *Coordinator) NewScriptResource(typeName, class string) (*object.Object, handle.Handle, error) {
	if !c.classes.IsParentClass(typeName, class) && !c.classes.IsParentClass(class, typeName) {
		// Unrelated declared type; the wrapper could never legally rebind.
		return nil, handle.Handle{}, fmt.Errorf("bridge: new resource %q as %q: %w", class, typeName, variant.ErrTypeMismatch)
	}
	obj, err := c.classes.Instantiate(c.objects, class)
	if err != nil {
		return nil, handle.Handle{}, err
	}

	target, err := c.runtime.CreateManagedForBinding(typeName, obj.ID())
	if err != nil {
		obj.Free()
		return nil, handle.Handle{}, fmt.Errorf("bridge: create wrapper for %s: %w", obj.String(), err)
	}
	h := c.handles.Alloc(target, handle.Strong)

	c.registry.mu.Lock()
	b, bindErr := c.registry.bindLocked(obj.ID(), typeName)
	if bindErr == nil {
		b.Handle = h
		b.Inited = true
	}
	c.registry.mu.Unlock()
	if bindErr != nil {
		c.handles.Release(h)
		obj.Free()
		return nil, handle.Handle{}, bindErr
	}

	if rc := obj.AsRefCounted(); rc != nil {
		rc.Reference()
	}
	return obj, h, nil
}

// FilterByNative keeps the array's object elements whose native class is
// className or derives from it.
func (c *Coordinator) FilterByNative(arr *variant.Array, className string) *variant.Array {
	out := variant.NewArrayOf()
	for i := 0; i < arr.Size(); i++ {
		v := arr.Get(i)
		if v.Kind() != variant.KindObject {
			continue
		}
		o := c.objects.Get(v.ObjectID())
		if o != nil && c.classes.IsParentClass(o.Class(), className) {
			out.Add(v)
		}
	}
	return out
}

// FilterByScripted keeps the array's object elements bound to the declared
// managed type name.
func (c *Coordinator) FilterByScripted(arr *variant.Array, typeName string) *variant.Array {
	out := variant.NewArrayOf()
	for i := 0; i < arr.Size(); i++ {
		v := arr.Get(i)
		if v.Kind() != variant.KindObject {
			continue
		}
		if b, ok := c.registry.Lookup(v.ObjectID()); ok && b.TypeName == typeName {
			out.Add(v)
		}
	}
	return out
}
